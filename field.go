package lightreq

import "fmt"

// BackRef points at output Output of the request at position Request
// in the same batch.
type BackRef struct {
	Request int
	Output  int
}

func (r BackRef) String() string {
	return fmt.Sprintf("ref(%d,%d)", r.Request, r.Output)
}

// Field is a request input that is either a known scalar of type T or
// a back-reference to an output of an earlier request.
//
// The zero Field is Scalar(zero T).
type Field[T comparable] struct {
	value T
	ref   BackRef
	isRef bool
}

// Scalar returns a resolved field holding v.
func Scalar[T comparable](v T) Field[T] {
	return Field[T]{value: v}
}

// BackReference returns an unresolved field pointing at output idx of
// request req.
func BackReference[T comparable](req, idx int) Field[T] {
	return Field[T]{ref: BackRef{Request: req, Output: idx}, isRef: true}
}

// IsScalar reports whether the field is resolved.
func (f Field[T]) IsScalar() bool { return !f.isRef }

// Value returns the scalar value, or false if the field is still a
// back-reference.
func (f Field[T]) Value() (T, bool) {
	if f.isRef {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Ref returns the back-reference, or false if the field is resolved.
func (f Field[T]) Ref() (BackRef, bool) {
	return f.ref, f.isRef
}

// IntoScalar returns the scalar value or a NoSuchOutputError naming
// the unresolved reference.
func (f Field[T]) IntoScalar() (T, error) {
	if f.isRef {
		var zero T
		return zero, noSuchOutput(f.ref.Request, f.ref.Output)
	}
	return f.value, nil
}

// AdjustRefs rewrites the request index of a back-reference through
// mapping. Scalars are left untouched.
func (f *Field[T]) AdjustRefs(mapping func(int) int) {
	if f.isRef {
		f.ref.Request = mapping(f.ref.Request)
	}
}

func (f Field[T]) String() string {
	if f.isRef {
		return f.ref.String()
	}
	return fmt.Sprintf("%v", f.value)
}

// check runs check against the field's reference, if any, accepting
// the first of kinds that the checker confirms.
func (f Field[T]) check(check OutputChecker, kinds ...OutputKind) error {
	if !f.isRef {
		return nil
	}
	var err error
	for _, kind := range kinds {
		if err = check(f.ref.Request, f.ref.Output, kind); err == nil {
			return nil
		}
	}
	return err
}

// fill resolves the field from oracle when the lookup succeeds and
// the output converts to T. Anything else leaves the field as is.
func (f *Field[T]) fill(oracle Oracle, convert func(Output) (T, bool)) {
	if !f.isRef {
		return
	}
	out, err := oracle(f.ref.Request, f.ref.Output)
	if err != nil {
		return
	}
	if v, ok := convert(out); ok {
		*f = Scalar(v)
	}
}
