package ledger

import (
	"github.com/fxamacker/cbor/v2"
)

// Records are encoded with Core Deterministic Encoding so identical state
// always hashes to the same root.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("ledger: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("ledger: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v the way records are stored.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes record data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
