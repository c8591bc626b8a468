package midisync

import (
	"github.com/leandrodaf/midisync/internal/logger"
	"github.com/leandrodaf/midisync/sdk/contracts"
)

// Defaults applied when options are not explicitly provided.
const (
	defaultClientName      = "midisync"
	defaultSPPIntervalRows = 16
	defaultSyncThreshold   = 0.01
)

// applyDefaultOptions sets default values for Options if not explicitly
// provided.
func applyDefaultOptions(opts ...contracts.Option) contracts.Options {
	options := &contracts.Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientName == "" {
		options.ClientName = defaultClientName
	}
	if options.SPPIntervalRows <= 0 {
		options.SPPIntervalRows = defaultSPPIntervalRows
	}
	if options.SyncThreshold == 0 {
		options.SyncThreshold = defaultSyncThreshold
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
