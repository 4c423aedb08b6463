package gate

import (
	"encoding/binary"
	"encoding/hex"
)

// Approval is the 32-byte word passed to the ledger's approval call.
//
// Bytes 0..3 hold the job id big-endian and byte 31 is 1 when the job is
// accepted. All other bytes are zero.
type Approval [32]byte

// ApprovalWord builds the approval word for a job.
func ApprovalWord(jobID uint32, accepted bool) Approval {
	var a Approval
	binary.BigEndian.PutUint32(a[0:4], jobID)
	if accepted {
		a[31] = 1
	}
	return a
}

// JobID returns the job id encoded in a.
func (a Approval) JobID() uint32 { return binary.BigEndian.Uint32(a[0:4]) }

// Accepted reports whether a approves the job.
func (a Approval) Accepted() bool { return a[31] == 1 }

// String returns the 0x-prefixed hex form.
func (a Approval) String() string { return "0x" + hex.EncodeToString(a[:]) }

// MarshalText implements encoding.TextMarshaler.
func (a Approval) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
