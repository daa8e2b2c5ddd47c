package bridge

import (
	"github.com/bytedance/sonic"
)

// codec is the wire JSON codec. Map keys are sorted so emitted scripts and
// frames are stable.
var codec = sonic.ConfigStd

// Marshal encodes v with the bridge wire codec
func Marshal(v interface{}) ([]byte, error) {
	return codec.Marshal(v)
}

// Unmarshal decodes data with the bridge wire codec
func Unmarshal(data []byte, v interface{}) error {
	return codec.Unmarshal(data, v)
}
