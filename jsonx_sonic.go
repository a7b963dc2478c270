//go:build !nojsonsimd

package main

import (
	"reflect"

	"github.com/bytedance/sonic"
)

var fastJSON = sonic.ConfigDefault

func fastJSONMarshal(v any) ([]byte, error) {
	return fastJSON.Marshal(v)
}

func fastJSONUnmarshal(data []byte, v any) error {
	return fastJSON.Unmarshal(data, v)
}

func init() {
	// Sonic compiles codecs lazily; pretouch the payload types decoded on
	// every poll so the first tick does not pay the codegen cost.
	_ = sonic.Pretouch(reflect.TypeOf((*playerCountEnvelope)(nil)).Elem())
	_ = sonic.Pretouch(reflect.TypeOf((*playerMapEnvelope)(nil)).Elem())
	_ = sonic.Pretouch(reflect.TypeOf((*webhookMessageCreated)(nil)).Elem())
}
