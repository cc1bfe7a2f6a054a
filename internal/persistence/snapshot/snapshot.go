package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version  int    `json:"version"`
	Scenario string `json:"scenario"`
	Round    int    `json:"round"`
}

// BoardV1 is a full copy of a world: walls, paint and every unit.
type BoardV1 struct {
	Header Header `json:"header"`

	Seed   int64    `json:"seed"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"`

	// Paint is row-major from y=0; "" marks unpainted cells.
	Paint []string `json:"paint"`
	Units []UnitV1 `json:"units"`
}

type UnitV1 struct {
	ID       string `json:"id"`
	Team     string `json:"team"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Cooldown int    `json:"cooldown"`
	Paint    int    `json:"paint"`
	Marks    bool   `json:"marks,omitempty"`
}

// WriteSnapshot stores a JSON header line followed by the gob-encoded board,
// all zstd-compressed.
func WriteSnapshot(path string, snap BoardV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriterSize(enc, 256*1024)
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return bw.Flush()
}

func ReadSnapshot(path string) (BoardV1, error) {
	var snap BoardV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
