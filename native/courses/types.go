package courses

import "math/big"

// Course represents an issued course credential. The record is immutable once
// issued; pricing and reward metadata describe the course, settlement of the
// price itself happens outside this module.
type Course struct {
	ID          uint64   `json:"id"`
	Creator     [20]byte `json:"creator"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *big.Int `json:"price"`
	Reward      *big.Int `json:"reward"`
	MetadataURI string   `json:"metadataUri"`
	CreatedAt   int64    `json:"createdAt"`
}

// Clone returns a deep copy of the course record.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Price != nil {
		clone.Price = new(big.Int).Set(c.Price)
	}
	if c.Reward != nil {
		clone.Reward = new(big.Int).Set(c.Reward)
	}
	return &clone
}
