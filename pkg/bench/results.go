package bench

import (
	"github.com/Sumatoshi-tech/avltree/pkg/persist"
)

// ResultsBasename is the file name, without extension, of a saved run.
const ResultsBasename = "avltree-bench"

// ResultsPersister returns the persister for runs encoded with codecName.
func ResultsPersister(codecName string) (*persist.Persister[Result], error) {
	codec, err := persist.CodecByName(codecName)
	if err != nil {
		return nil, err
	}

	return persist.NewPersister[Result](ResultsBasename, codec), nil
}
