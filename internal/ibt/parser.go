package ibt

import (
	"bytes"
	"encoding/binary"
	"log"
	"math"
)

// Parse reads a complete .ibt byte buffer.
//
// channels selects which telemetry columns to extract: nil means
// CoreChannels, an empty slice means every scalar channel in the file.
// Channels absent from the descriptor table, with non-scalar element
// counts, or with unknown storage types are skipped silently.
func Parse(data []byte, channels []string) (*Capture, error) {
	header, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	diskSub, err := readDiskSubHeader(data)
	if err != nil {
		return nil, err
	}
	varHeaders, err := readVarHeaders(data, header)
	if err != nil {
		return nil, err
	}
	session := readSessionInfo(data, header)

	target := channels
	if target == nil {
		target = CoreChannels
	}
	telemetry := readTelemetry(data, header, diskSub, varHeaders, target)

	return &Capture{
		Header:        header,
		DiskSubHeader: diskSub,
		Session:       session,
		VarHeaders:    varHeaders,
		Telemetry:     telemetry,
	}, nil
}

func readHeader(data []byte) (Header, error) {
	if len(data) < totalHeaderSize {
		return Header{}, formatErrorf("file too small for header: %d bytes (need at least %d)",
			len(data), totalHeaderSize)
	}

	le := binary.LittleEndian
	h := Header{
		Version:           int32(le.Uint32(data[0:])),
		Status:            int32(le.Uint32(data[4:])),
		TickRate:          int32(le.Uint32(data[8:])),
		SessionInfoUpdate: int32(le.Uint32(data[12:])),
		SessionInfoLen:    int32(le.Uint32(data[16:])),
		SessionInfoOffset: int32(le.Uint32(data[20:])),
		NumVars:           int32(le.Uint32(data[24:])),
		VarHeaderOffset:   int32(le.Uint32(data[28:])),
		NumBuf:            int32(le.Uint32(data[32:])),
		BufLen:            int32(le.Uint32(data[36:])),
	}

	if h.Version != 1 && h.Version != 2 {
		// Header layout has been stable across known versions, so keep
		// going rather than refusing the file.
		log.Printf("warning: unexpected ibt version %d (expected 1 or 2), parsing may not be correct", h.Version)
	}

	// varBuf[0].bufOffset locates the sample buffer.
	varBufStart := headerFieldsSize + headerPadSize
	h.VarBufOffset = int32(le.Uint32(data[varBufStart+4:]))

	return h, nil
}

func readDiskSubHeader(data []byte) (DiskSubHeader, error) {
	if len(data) < totalHeaderSize+diskSubHeaderSize {
		return DiskSubHeader{}, formatErrorf("file too small for disk sub-header: %d bytes", len(data))
	}

	le := binary.LittleEndian
	off := totalHeaderSize
	return DiskSubHeader{
		SessionStartDate:   int64(le.Uint64(data[off:])),
		SessionStartTime:   math.Float64frombits(le.Uint64(data[off+8:])),
		SessionEndTime:     math.Float64frombits(le.Uint64(data[off+16:])),
		SessionLapCount:    int32(le.Uint32(data[off+24:])),
		SessionRecordCount: int32(le.Uint32(data[off+28:])),
	}, nil
}

func readVarHeaders(data []byte, h Header) ([]VarHeader, error) {
	if h.NumVars < 0 {
		return nil, formatErrorf("negative var count %d", h.NumVars)
	}
	start := int(h.VarHeaderOffset)
	end := start + int(h.NumVars)*varHeaderSize
	if start < 0 || end > len(data) {
		return nil, formatErrorf("var header table out of range: offset %d count %d file %d bytes",
			h.VarHeaderOffset, h.NumVars, len(data))
	}

	le := binary.LittleEndian
	headers := make([]VarHeader, 0, h.NumVars)
	for i := 0; i < int(h.NumVars); i++ {
		rec := data[start+i*varHeaderSize:]
		headers = append(headers, VarHeader{
			Type:        VarType(int32(le.Uint32(rec[0:]))),
			Offset:      int32(le.Uint32(rec[4:])),
			Count:       int32(le.Uint32(rec[8:])),
			CountAsTime: rec[12] != 0,
			Name:        cString(rec[16 : 16+varHeaderNameLen]),
			Desc:        cString(rec[48 : 48+varHeaderDescLen]),
			Unit:        cString(rec[112 : 112+varHeaderUnitLen]),
		})
	}
	return headers, nil
}

// cString trims a fixed-width field at the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// readTelemetry extracts the requested channels as float64 columns.
// target empty means every scalar channel in the file.
func readTelemetry(data []byte, h Header, sub DiskSubHeader, varHeaders []VarHeader, target []string) *Telemetry {
	bufOffset := int(h.VarBufOffset)
	bufLen := int(h.BufLen)
	recordCount := int(sub.SessionRecordCount)

	if recordCount <= 0 || bufLen <= 0 || bufOffset < 0 || bufOffset >= len(data) {
		return NewTelemetry(nil)
	}
	// The declared count can exceed what the file actually holds when a
	// capture is cut short; clamp instead of failing.
	if maxRecords := (len(data) - bufOffset) / bufLen; recordCount > maxRecords {
		log.Printf("warning: capture declares %d samples but holds %d, truncating", recordCount, maxRecords)
		recordCount = maxRecords
	}
	if recordCount <= 0 {
		return NewTelemetry(nil)
	}

	byName := make(map[string]VarHeader, len(varHeaders))
	for _, vh := range varHeaders {
		byName[vh.Name] = vh
	}

	var toRead []VarHeader
	if len(target) > 0 {
		for _, name := range target {
			if vh, ok := byName[name]; ok {
				toRead = append(toRead, vh)
			}
		}
	} else {
		for _, vh := range varHeaders {
			if vh.Count == 1 {
				toRead = append(toRead, vh)
			}
		}
	}

	columns := make(map[string][]float64, len(toRead))
	for _, vh := range toRead {
		size := vh.Type.byteSize()
		if size == 0 || vh.Count != 1 {
			continue
		}
		if int(vh.Offset)+size > bufLen {
			continue
		}
		columns[vh.Name] = extractColumn(data, vh, bufOffset, bufLen, recordCount)
	}
	return NewTelemetry(columns)
}

// extractColumn walks one fixed-stride column across all sample records.
func extractColumn(data []byte, vh VarHeader, bufOffset, bufLen, recordCount int) []float64 {
	le := binary.LittleEndian
	col := make([]float64, recordCount)
	base := bufOffset + int(vh.Offset)

	for i := 0; i < recordCount; i++ {
		off := base + i*bufLen
		switch vh.Type {
		case VarChar:
			col[i] = float64(data[off])
		case VarBool:
			if data[off] != 0 {
				col[i] = 1
			}
		case VarInt:
			col[i] = float64(int32(le.Uint32(data[off:])))
		case VarBitField:
			col[i] = float64(le.Uint32(data[off:]))
		case VarFloat:
			col[i] = float64(math.Float32frombits(le.Uint32(data[off:])))
		case VarDouble:
			col[i] = math.Float64frombits(le.Uint64(data[off:]))
		}
	}
	return col
}
