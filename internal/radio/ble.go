package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// BLE broadcast carries frames as non-connectable advertisements:
// manufacturer data [0:2] magic 0xA7 0x05, [2] protocol port, [3:] frame
// payload, under the 0xFFFF test company ID.
const (
	blePayloadMagic0 = 0xA7
	blePayloadMagic1 = 0x05
	bleHeaderLen     = 3

	bleCompanyID = 0xFFFF

	bleAdvInterval = 100 * time.Millisecond
	bleBurst       = 600 * time.Millisecond
)

// BLEMaxFrameLen is the largest frame that fits a legacy advertisement:
// ~24 bytes of manufacturer data remain after flags and the AD header,
// minus this transport's own 3-byte header.
const BLEMaxFrameLen = 24 - bleHeaderLen

// BLEOptions configures the advertisement radio.
type BLEOptions struct {
	Adapter   string // "hci0" by default
	LocalName string
}

// BLERadio broadcasts and receives frames as BLE manufacturer-data
// advertisements. True shared-medium broadcast: no link, no acknowledgment,
// receivers overhear whatever bursts happen while they scan.
type BLERadio struct {
	adapter *bluetooth.Adapter
	opts    BLEOptions
	logger  *slog.Logger

	mu        sync.Mutex
	enabled   bool
	receivers map[uint8][]Receiver
	adv       *bluetooth.Advertisement
	sending   bool
}

func NewBLERadio(opts BLEOptions, logger *slog.Logger) *BLERadio {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if opts.LocalName == "" {
		opts.LocalName = "atmosnode"
	}
	return &BLERadio{
		adapter:   bluetooth.NewAdapter(opts.Adapter),
		opts:      opts,
		logger:    logger,
		receivers: make(map[uint8][]Receiver),
	}
}

func (b *BLERadio) enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enabled {
		return nil
	}
	if err := b.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", b.opts.Adapter, err)
	}
	b.adv = b.adapter.DefaultAdvertisement()
	b.enabled = true
	b.logger.Info("ble radio enabled", "adapter", b.opts.Adapter)
	return nil
}

// RegisterReceiver records fn for frames on port. Scanning starts when Run
// is called; registrations made before that are honored.
func (b *BLERadio) RegisterReceiver(port uint8, fn Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers[port] = append(b.receivers[port], fn)
}

// Broadcast sends one frame as a short advertisement burst. It returns as
// soon as the burst is scheduled; air time happens on a background
// goroutine. Frames too large for legacy advertising are rejected.
func (b *BLERadio) Broadcast(port uint8, payload []byte) error {
	if len(payload) > BLEMaxFrameLen {
		return fmt.Errorf("ble: frame of %d bytes exceeds advertising capacity (%d)",
			len(payload), BLEMaxFrameLen)
	}
	if err := b.enable(); err != nil {
		return err
	}

	data := make([]byte, bleHeaderLen+len(payload))
	data[0] = blePayloadMagic0
	data[1] = blePayloadMagic1
	data[2] = port
	copy(data[bleHeaderLen:], payload)

	b.mu.Lock()
	if b.sending {
		b.mu.Unlock()
		// A burst is still on the air; the caller's cache keeps the newer
		// values for the next eligible transmission.
		return fmt.Errorf("ble: transmitter busy")
	}
	b.sending = true
	b.mu.Unlock()

	go b.burst(data)
	return nil
}

func (b *BLERadio) burst(data []byte) {
	defer func() {
		b.mu.Lock()
		b.sending = false
		b.mu.Unlock()
	}()

	err := b.adv.Configure(bluetooth.AdvertisementOptions{
		AdvertisementType: bluetooth.AdvertisingTypeNonConnInd,
		LocalName:         b.opts.LocalName,
		Interval:          bluetooth.NewDuration(bleAdvInterval),
		ManufacturerData: []bluetooth.ManufacturerDataElement{
			{CompanyID: bleCompanyID, Data: data},
		},
	})
	if err != nil {
		b.logger.Warn("ble: advertisement configure failed", "error", err)
		return
	}
	if err := b.adv.Start(); err != nil {
		b.logger.Warn("ble: advertisement start failed", "error", err)
		return
	}
	time.Sleep(bleBurst)
	if err := b.adv.Stop(); err != nil {
		b.logger.Warn("ble: advertisement stop failed", "error", err)
	}
}

// Run scans for frame advertisements until ctx is canceled. It returns
// immediately with no error if no receivers are registered (a pure
// transmitter has nothing to scan for).
func (b *BLERadio) Run(ctx context.Context) error {
	b.mu.Lock()
	listening := len(b.receivers) > 0
	b.mu.Unlock()
	if !listening {
		return nil
	}
	if err := b.enable(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = b.adapter.StopScan()
	}()

	b.logger.Info("ble: scanning for frames", "company", fmt.Sprintf("0x%04X", uint16(bleCompanyID)))

	err := b.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		for _, md := range r.ManufacturerData() {
			if md.CompanyID != bleCompanyID {
				continue
			}
			b.dispatch(md.Data)
		}
	})

	if ctx.Err() != nil {
		b.logger.Info("ble: scanning stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}
	return nil
}

// dispatch strips the advertisement header and fans the frame out to the
// port's receivers. Non-frame manufacturer data is ignored quietly; the
// band is shared with whatever else is advertising nearby.
func (b *BLERadio) dispatch(data []byte) {
	if len(data) < bleHeaderLen {
		return
	}
	if data[0] != blePayloadMagic0 || data[1] != blePayloadMagic1 {
		return
	}
	port := data[2]

	b.mu.Lock()
	fns := append([]Receiver(nil), b.receivers[port]...)
	b.mu.Unlock()

	for _, fn := range fns {
		fn(append([]byte(nil), data[bleHeaderLen:]...))
	}
}
