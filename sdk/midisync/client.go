package midisync

import (
	"errors"

	"github.com/leandrodaf/midisync/sdk/contracts"
)

// ErrNilPlayer is returned when no playback-engine collaborator is provided.
var ErrNilPlayer = errors.New("nil player")

// NewSynchronizer creates a synchronizer bound to the given playback engine,
// with the specified options applied over defaults.
//
// player contracts.Player: The playback-engine collaborator that receives
// remote transport, jump and mixer commands.
// opts ...contracts.Option: A variadic list of option functions to customize
// the configuration.
//
// Returns:
//   - *Synchronizer: The synchronizer, with its clock-generator thread
//     already running.
//   - error: An error, if any occurred during creation.
func NewSynchronizer(player contracts.Player, opts ...contracts.Option) (*Synchronizer, error) {
	if player == nil {
		return nil, ErrNilPlayer
	}
	options := applyDefaultOptions(opts...)
	return newSynchronizer(player, options), nil
}
