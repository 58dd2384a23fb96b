package flash

import (
	"hash/crc32"

	"go.uber.org/zap"

	"github.com/rebbleos/appmanager/internal/logging"
	"github.com/rebbleos/appmanager/internal/manifest"
	"github.com/rebbleos/appmanager/internal/metrics"
	"github.com/rebbleos/appmanager/internal/types"
)

// Scanner enumerates a fixed range of flash slots and appends valid
// entries to the manifest (spec.md §4.2).
type Scanner struct {
	driver    Driver
	slotCount int
	verifyCRC bool
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSlotCount overrides the default 32-slot scan range.
func WithSlotCount(n int) Option {
	return func(s *Scanner) { s.slotCount = n }
}

// WithCRC enables or disables the optional CRC32 check over each slot's
// body (spec.md §9: "Implementations should perform it and fail loads on
// mismatch").
func WithCRC(verify bool) Option {
	return func(s *Scanner) { s.verifyCRC = verify }
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// NewScanner creates a Scanner over driver, scanning 32 slots by default.
func NewScanner(driver Driver, opts ...Option) *Scanner {
	s := &Scanner{
		driver:    driver,
		slotCount: 32,
		verifyCRC: true,
		logger:    logging.NewDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan enumerates slots [0, slotCount) and appends each valid application
// to m. It returns the number of applications accepted.
func (s *Scanner) Scan(m *manifest.Manifest) int {
	accepted := 0
	for slot := 0; slot < s.slotCount; slot++ {
		header, err := s.driver.ReadHeader(slot)
		if err != nil {
			// An unreadable slot is simply empty; not an error worth logging.
			continue
		}

		if !header.HasValidMagic() {
			continue
		}

		if s.verifyCRC {
			if ok, err := s.checkCRC(slot, header); err != nil || !ok {
				s.logger.Error("app failed CRC check, skipping slot",
					zap.Int("slot", slot), zap.String("name", header.NameString()))
				continue
			}
		}

		s.logger.Info("valid app found", zap.Int("slot", slot), zap.String("name", header.NameString()))

		h := header
		m.Add(&types.Application{
			Name:       header.NameString(),
			Type:       types.TypeFace,
			Entry:      nil,
			IsInternal: false,
			SlotID:     slot,
			Header:     &h,
		})
		accepted++
	}
	if s.metrics != nil {
		s.metrics.ManifestApps.Set(float64(m.Len()))
	}
	return accepted
}

// checkCRC recomputes CRC32 over the slot's binary payload and compares it
// against the header's stored value. CRC verification is optional per
// spec.md §4.2; callers that disable it never reach here.
func (s *Scanner) checkCRC(slot int, header types.Header) (bool, error) {
	body, err := s.driver.ReadBody(slot, int(header.AppSize))
	if err != nil {
		return false, err
	}
	return crc32.ChecksumIEEE(body) == header.CRC, nil
}
