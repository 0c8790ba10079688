// Package pcapwriter re-serializes packet records into a classic pcap or a
// pcapng file.
package pcapwriter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/pcapview/internal/pkg/capture"
	"github.com/endorses/pcapview/internal/pkg/constants"
	"github.com/endorses/pcapview/internal/pkg/dissect"
	"github.com/endorses/pcapview/internal/pkg/logger"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Output formats
const (
	FormatPCAP   = "pcap"
	FormatPCAPNG = "pcapng"
)

var (
	// ErrClosed is returned when writing to a closed writer.
	ErrClosed = errors.New("writer is closed")
	// ErrLinkType is returned for a packet whose link type the output cannot hold.
	ErrLinkType = errors.New("unsupported link type")
)

// Writer writes packets to a capture file from a background goroutine.
type Writer struct {
	filePath   string
	format     string
	snapLen    uint32
	file       *os.File
	pcap       *pcapgo.Writer
	nanos      bool
	ng         *pcapgo.NgWriter
	ifaces     map[dissect.LinkType]int
	link       dissect.LinkType
	started    bool
	packetChan chan capture.Packet
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     atomic.Bool
	syncTicker *time.Ticker

	packetCount  int64
	bytesWritten int64
	skipped      int64
}

// Config for the writer
type Config struct {
	FilePath     string        // Path of the file to create
	Format       string        // FormatPCAP or FormatPCAPNG
	SnapLen      uint32        // Snapshot length written to the file header
	Nanosecond   bool          // Classic pcap only: write nanosecond timestamps
	BufferSize   int           // Channel buffer size
	SyncInterval time.Duration // How often to sync to disk
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Format:       FormatPCAPNG,
		SnapLen:      constants.MaxSnapLen,
		BufferSize:   1000,
		SyncInterval: 5 * time.Second,
	}
}

// Stats describes what a writer has written.
type Stats struct {
	Packets int64 `json:"packets" yaml:"packets"`
	Bytes   int64 `json:"bytes" yaml:"bytes"`
	Skipped int64 `json:"skipped" yaml:"skipped"`
}

// New creates the output file and starts the write loop.
func New(config *Config) (*Writer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.FilePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if config.Format != FormatPCAP && config.Format != FormatPCAPNG {
		return nil, fmt.Errorf("unsupported output format %q", config.Format)
	}
	defaults := DefaultConfig()
	snapLen := config.SnapLen
	if snapLen == 0 {
		snapLen = defaults.SnapLen
	}
	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaults.BufferSize
	}
	syncInterval := config.SyncInterval
	if syncInterval <= 0 {
		syncInterval = defaults.SyncInterval
	}

	file, err := os.Create(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Writer{
		filePath:   config.FilePath,
		format:     config.Format,
		snapLen:    snapLen,
		nanos:      config.Nanosecond,
		file:       file,
		ifaces:     make(map[dissect.LinkType]int),
		packetChan: make(chan capture.Packet, bufferSize),
		ctx:        ctx,
		cancel:     cancel,
		syncTicker: time.NewTicker(syncInterval),
	}

	w.wg.Add(1)
	go w.writeLoop()

	logger.Info("Created capture writer", "file", config.FilePath, "format", config.Format)
	return w, nil
}

// WritePacket queues p for writing. It blocks while the buffer is full,
// until ctx is done.
func (w *Writer) WritePacket(ctx context.Context, p capture.Packet) error {
	if w.closed.Load() {
		return ErrClosed
	}
	select {
	case w.packetChan <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.ctx.Done():
		return ErrClosed
	}
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()
	for {
		select {
		case p, ok := <-w.packetChan:
			if !ok {
				return
			}
			w.write(p)
		case <-w.syncTicker.C:
			w.mu.Lock()
			w.flush()
			if w.file != nil {
				if err := w.file.Sync(); err != nil {
					logger.Warn("Failed to sync capture file", "error", err, "file", w.filePath)
				}
			}
			w.mu.Unlock()
		}
	}
}

func (w *Writer) write(p capture.Packet) {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.writePacketToFile(p)
	if err == nil {
		return
	}
	w.skipped++
	if errors.Is(err, ErrLinkType) {
		logger.Warn("Skipping packet", "file", w.filePath, "packet", p.Number(), "link_type", p.LinkType().String(), "error", err)
		return
	}
	logger.Error("Failed to write packet", "file", w.filePath, "packet", p.Number(), "error", err)
}

func (w *Writer) writePacketToFile(p capture.Packet) error {
	link := p.LinkType()
	if uint16(link) > 0xff {
		return fmt.Errorf("%s: %w", link, ErrLinkType)
	}
	if err := w.start(link); err != nil {
		return err
	}

	data := p.Data().Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     p.Timestamp(),
		CaptureLength: len(data),
		Length:        max(p.OriginalLength(), len(data)),
	}
	switch w.format {
	case FormatPCAP:
		if link != w.link {
			return fmt.Errorf("%s in a %s file: %w", link, w.link, ErrLinkType)
		}
		if err := w.pcap.WritePacket(ci, data); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	default:
		id, err := w.iface(link)
		if err != nil {
			return err
		}
		ci.InterfaceIndex = id
		if err := w.ng.WritePacket(ci, data); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	}

	w.packetCount++
	w.bytesWritten += int64(len(data))
	return nil
}

// start writes the file header. The first packet decides the link type of
// a classic file and of the first pcapng interface.
func (w *Writer) start(link dissect.LinkType) error {
	if w.started {
		return nil
	}
	w.started = true
	w.link = link

	switch w.format {
	case FormatPCAP:
		if w.nanos {
			w.pcap = pcapgo.NewWriterNanos(w.file)
		} else {
			w.pcap = pcapgo.NewWriter(w.file)
		}
		if err := w.pcap.WriteFileHeader(w.snapLen, layers.LinkType(link)); err != nil {
			return fmt.Errorf("failed to write file header: %w", err)
		}
	default:
		ng, err := pcapgo.NewNgWriterInterface(w.file, w.ngInterface(link), pcapgo.NgWriterOptions{
			SectionInfo: pcapgo.NgSectionInfo{Application: "pcapview"},
		})
		if err != nil {
			return fmt.Errorf("failed to write section header: %w", err)
		}
		w.ng = ng
		w.ifaces[link] = 0
	}
	logger.Debug("Wrote capture header", "file", w.filePath, "link_type", link.String())
	return nil
}

func (w *Writer) ngInterface(link dissect.LinkType) pcapgo.NgInterface {
	return pcapgo.NgInterface{
		Name:                fmt.Sprintf("if%d", len(w.ifaces)),
		Description:         link.String(),
		LinkType:            layers.LinkType(link),
		SnapLength:          w.snapLen,
		TimestampResolution: 9,
	}
}

// iface returns the pcapng interface for link, describing a new one the
// first time a link type is seen.
func (w *Writer) iface(link dissect.LinkType) (int, error) {
	if id, ok := w.ifaces[link]; ok {
		return id, nil
	}
	id, err := w.ng.AddInterface(w.ngInterface(link))
	if err != nil {
		return 0, fmt.Errorf("failed to add interface: %w", err)
	}
	w.ifaces[link] = id
	return id, nil
}

func (w *Writer) flush() {
	if w.ng == nil {
		return
	}
	if err := w.ng.Flush(); err != nil {
		logger.Warn("Failed to flush capture file", "error", err, "file", w.filePath)
	}
}

// Close drains queued packets and closes the file. A file that received no
// packet still gets a valid Ethernet header.
func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	close(w.packetChan)
	w.wg.Wait()
	w.cancel()
	w.syncTicker.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.start(dissect.LinkTypeEthernet); err != nil {
		logger.Warn("Failed to write empty capture header", "error", err, "file", w.filePath)
	}
	w.flush()
	if err := w.file.Sync(); err != nil {
		logger.Warn("Failed to sync capture file", "error", err, "file", w.filePath)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close capture file: %w", err)
	}

	logger.Info("Closed capture writer",
		"file", w.filePath,
		"packets", w.packetCount,
		"bytes", w.bytesWritten,
		"skipped", w.skipped)
	return nil
}

// Stats returns current writer statistics
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Packets: w.packetCount, Bytes: w.bytesWritten, Skipped: w.skipped}
}

// FilePath returns the file path being written to
func (w *Writer) FilePath() string {
	return w.filePath
}

// Convert writes every packet record of c to a new file.
func Convert(ctx context.Context, c *capture.Context, config *Config) (Stats, error) {
	w, err := New(config)
	if err != nil {
		return Stats{}, err
	}
	for _, rec := range c.Records() {
		p, ok := rec.(capture.Packet)
		if !ok {
			continue
		}
		if err := w.WritePacket(ctx, p); err != nil {
			_ = w.Close()
			return w.Stats(), fmt.Errorf("failed to convert packet %d: %w", p.Number(), err)
		}
	}
	if err := w.Close(); err != nil {
		return w.Stats(), err
	}
	return w.Stats(), nil
}
