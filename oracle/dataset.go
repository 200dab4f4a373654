package oracle

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sealtrust/nautilus-oracle/bcs"
)

// DatasetVerification is the content-verification payload. Field order and
// types match the on-chain struct and must not change.
type DatasetVerification struct {
	DatasetHash           hexutil.Bytes `json:"dataset_hash"`
	DatasetURL            hexutil.Bytes `json:"dataset_url"`
	Format                hexutil.Bytes `json:"format"`
	SchemaVersion         hexutil.Bytes `json:"schema_version"`
	VerificationTimestamp uint64        `json:"verification_timestamp"`
}

func (v DatasetVerification) MarshalBCS(e *bcs.Encoder) {
	e.Bytes(v.DatasetHash)
	e.Bytes(v.DatasetURL)
	e.Bytes(v.Format)
	e.Bytes(v.SchemaVersion)
	e.U64(v.VerificationTimestamp)
}

func (v *DatasetVerification) UnmarshalBCS(d *bcs.Decoder) error {
	var err error
	if v.DatasetHash, err = d.Bytes(); err != nil {
		return err
	}
	if v.DatasetURL, err = d.Bytes(); err != nil {
		return err
	}
	if v.Format, err = d.Bytes(); err != nil {
		return err
	}
	if v.SchemaVersion, err = d.Bytes(); err != nil {
		return err
	}
	v.VerificationTimestamp, err = d.U64()
	return err
}

// DatasetRequest asks for the dataset at DatasetURL to be fetched and hashed.
// ExpectedHash, when set, is hex with an optional 0x prefix.
type DatasetRequest struct {
	DatasetURL    string  `json:"dataset_url"`
	ExpectedHash  *string `json:"expected_hash,omitempty"`
	Format        string  `json:"format"`
	SchemaVersion string  `json:"schema_version"`
}
