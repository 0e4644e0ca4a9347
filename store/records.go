package store

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/blockberries/lightreq"
	"github.com/blockberries/lightreq/types"
)

// Block is everything stored for one canonical block.
type Block struct {
	Number   uint64
	Hash     types.Hash
	Header   []byte
	TD       types.U256
	Proof    [][]byte
	Body     []byte
	Receipts [][]byte
	// Txs lists the transaction hashes in block order.
	Txs []types.Hash
}

type headerRecord struct {
	Number uint64     `cramberry:"1"`
	Header []byte     `cramberry:"2"`
	TD     types.U256 `cramberry:"3"`
	Proof  [][]byte   `cramberry:"4"`
}

type receiptsRecord struct {
	Receipts [][]byte `cramberry:"1"`
}

type txRecord struct {
	Number    uint64     `cramberry:"1"`
	BlockHash types.Hash `cramberry:"2"`
	Index     uint64     `cramberry:"3"`
}

// PutBlock stores a block and makes it canonical at its number. All
// records are written atomically.
func (s *Store) PutBlock(blk Block) error {
	b := new(leveldb.Batch)
	b.Put(canonicalKey(blk.Number), blk.Hash[:])
	if err := batchPut(b, prefixedKey(headersPrefix, blk.Hash), headerRecord{
		Number: blk.Number,
		Header: blk.Header,
		TD:     blk.TD,
		Proof:  blk.Proof,
	}); err != nil {
		return err
	}
	b.Put(prefixedKey(bodiesPrefix, blk.Hash), blk.Body)
	if err := batchPut(b, prefixedKey(receiptsPrefix, blk.Hash), receiptsRecord{Receipts: blk.Receipts}); err != nil {
		return err
	}
	for i, tx := range blk.Txs {
		if err := batchPut(b, prefixedKey(txPrefix, tx), txRecord{
			Number:    blk.Number,
			BlockHash: blk.Hash,
			Index:     uint64(i),
		}); err != nil {
			return err
		}
	}
	if err := s.db.Write(b, s.writeOptions()); err != nil {
		return fmt.Errorf("store: write block %d: %w", blk.Number, err)
	}
	s.log.Debugf("Wrote block %d (%s) with %d transactions", blk.Number, blk.Hash, len(blk.Txs))
	return nil
}

// PutAccount stores the account proof for address at block.
func (s *Store) PutAccount(block, address types.Hash, acct lightreq.AccountResponse) error {
	return s.write(prefixedKey(accountsPrefix, block, address), acct)
}

// PutStorage stores the storage proof for key of address at block.
func (s *Store) PutStorage(block, address, key types.Hash, slot lightreq.StorageResponse) error {
	return s.write(prefixedKey(storagePrefix, block, address, key), slot)
}

// PutCode stores contract code under its hash.
func (s *Store) PutCode(codeHash types.Hash, code []byte) error {
	if err := s.db.Put(prefixedKey(codePrefix, codeHash), code, s.writeOptions()); err != nil {
		return fmt.Errorf("store: write code %s: %w", codeHash, err)
	}
	return nil
}
