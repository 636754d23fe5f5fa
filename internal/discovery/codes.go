package discovery

import (
	"github.com/yndnr/gridwire-go/internal/wire"
)

// RegisterMessages adds the envelope and security wrapper to reg. Wrappers
// decoded through reg resolve byte payloads with m.
func RegisterMessages(reg *wire.Registry, m Marshaller) error {
	types := []wire.Type{
		{
			Code:   TypeEnvelope,
			Name:   "Envelope",
			Fields: envelopeFields,
			New:    func() wire.Message { return &Envelope{} },
		},
		{
			Code:   TypeSecurityAwareWrapper,
			Name:   "SecurityAwareWrapper",
			Fields: wrapperFields,
			New:    func() wire.Message { return &SecurityAwareWrapper{marsh: m} },
		},
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
