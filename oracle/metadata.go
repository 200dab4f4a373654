package oracle

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sealtrust/nautilus-oracle/bcs"
	"github.com/sealtrust/nautilus-oracle/cryptoutils"
)

// MetadataVerification is the metadata-only payload. OriginalHash is the hash
// of the unencrypted artifact; WalrusBlobID and SealPolicyID reference the
// stored ciphertext and the policy that governs decryption.
type MetadataVerification struct {
	DatasetID             hexutil.Bytes `json:"dataset_id"`
	Name                  hexutil.Bytes `json:"name"`
	Description           hexutil.Bytes `json:"description"`
	Format                hexutil.Bytes `json:"format"`
	Size                  uint64        `json:"size"`
	OriginalHash          hexutil.Bytes `json:"original_hash"`
	WalrusBlobID          hexutil.Bytes `json:"walrus_blob_id"`
	SealPolicyID          hexutil.Bytes `json:"seal_policy_id"`
	VerificationTimestamp uint64        `json:"verification_timestamp"`
	Uploader              hexutil.Bytes `json:"uploader"`
}

func (m MetadataVerification) MarshalBCS(e *bcs.Encoder) {
	e.Bytes(m.DatasetID)
	e.Bytes(m.Name)
	e.Bytes(m.Description)
	e.Bytes(m.Format)
	e.U64(m.Size)
	e.Bytes(m.OriginalHash)
	e.Bytes(m.WalrusBlobID)
	e.Bytes(m.SealPolicyID)
	e.U64(m.VerificationTimestamp)
	e.Bytes(m.Uploader)
}

func (m *MetadataVerification) UnmarshalBCS(d *bcs.Decoder) error {
	var err error
	for _, field := range []*hexutil.Bytes{&m.DatasetID, &m.Name, &m.Description, &m.Format} {
		if *field, err = d.Bytes(); err != nil {
			return err
		}
	}
	if m.Size, err = d.U64(); err != nil {
		return err
	}
	for _, field := range []*hexutil.Bytes{&m.OriginalHash, &m.WalrusBlobID, &m.SealPolicyID} {
		if *field, err = d.Bytes(); err != nil {
			return err
		}
	}
	if m.VerificationTimestamp, err = d.U64(); err != nil {
		return err
	}
	m.Uploader, err = d.Bytes()
	return err
}

// MetadataRequest is the claim as submitted by a caller. Text fields are
// signed as their UTF-8 bytes, OriginalHash is hex.
type MetadataRequest struct {
	DatasetID             string `json:"dataset_id"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	Format                string `json:"format"`
	Size                  uint64 `json:"size"`
	OriginalHash          string `json:"original_hash"`
	WalrusBlobID          string `json:"walrus_blob_id"`
	SealPolicyID          string `json:"seal_policy_id"`
	VerificationTimestamp uint64 `json:"verification_timestamp"`
	Uploader              string `json:"uploader"`
}

// MissingFields lists the required fields that are empty or whitespace only,
// by their JSON names.
func (r *MetadataRequest) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"dataset_id", r.DatasetID},
		{"name", r.Name},
		{"original_hash", r.OriginalHash},
		{"walrus_blob_id", r.WalrusBlobID},
		{"seal_policy_id", r.SealPolicyID},
		{"uploader", r.Uploader},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Payload validates r and converts it to the signable form.
func (r *MetadataRequest) Payload() (MetadataVerification, error) {
	if missing := r.MissingFields(); len(missing) > 0 {
		return MetadataVerification{}, NewError(KindIncompleteMetadata,
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}

	originalHash, err := cryptoutils.DecodeHexHash(r.OriginalHash)
	if err != nil {
		return MetadataVerification{}, NewError(KindHashFormat, "invalid original_hash", err)
	}

	return MetadataVerification{
		DatasetID:             []byte(r.DatasetID),
		Name:                  []byte(r.Name),
		Description:           []byte(r.Description),
		Format:                []byte(r.Format),
		Size:                  r.Size,
		OriginalHash:          originalHash,
		WalrusBlobID:          []byte(r.WalrusBlobID),
		SealPolicyID:          []byte(r.SealPolicyID),
		VerificationTimestamp: r.VerificationTimestamp,
		Uploader:              []byte(r.Uploader),
	}, nil
}
