package kafka

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/twmb/franz-go/pkg/kbin"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// decodeRecordBatches walks the raw, possibly-concatenated record batches a
// fetch response returns for one partition and emits one MessageData per
// record, using kmsg.RecordBatch.ReadFrom for each batch header and a
// varint-length-prefixed scan (readRawRecords) for the records inside it.
func decodeRecordBatches(partition int32, lastOffset int64, raw []byte) ([]MessageData, error) {
	var out []MessageData

	for len(raw) > 0 {
		batch := new(kmsg.RecordBatch)
		if err := batch.ReadFrom(raw); err != nil {
			// A partial trailing batch is normal at the end of a fetch
			// response; stop rather than fail the whole fetch.
			break
		}
		batchLen := int(batch.Length) + 12 // length field excludes the leading offset+length itself
		if batchLen <= 0 || batchLen > len(raw) {
			break
		}
		raw = raw[batchLen:]

		rawRecords := batch.Records
		if codec := byte(batch.Attributes & 0x0007); codec != 0 {
			decompressed, err := decompressRecords(rawRecords, codec)
			if err != nil {
				return out, protocolErr(fmt.Sprintf("failed to decompress record batch: %s", err))
			}
			rawRecords = decompressed
		}

		records := readRawRecords(int(batch.NumRecords), rawRecords)
		for i := range records {
			r := &records[i]
			key := r.Key
			if key == nil {
				key = []byte{}
			}
			value := r.Value
			if value == nil {
				value = []byte{}
			}
			offset := batch.FirstOffset + int64(r.OffsetDelta)
			out = append(out, MessageData{
				Partition:  partition,
				Offset:     offset,
				NextOffset: offset + 1,
				LastOffset: lastOffset,
				Key:        key,
				Value:      value,
			})
		}
	}

	return out, nil
}

// readRawRecords reads up to n varint-length-prefixed records from in,
// returning early on a truncated trailing record.
func readRawRecords(n int, in []byte) []kmsg.Record {
	records := make([]kmsg.Record, n)
	for i := 0; i < n; i++ {
		length, used := kbin.Varint(in)
		total := used + int(length)
		if used == 0 || length < 0 || len(in) < total {
			return records[:i]
		}
		if err := records[i].ReadFrom(in[:total]); err != nil {
			return records[:i]
		}
		in = in[total:]
	}
	return records
}

// Compression codec ids per the record batch attributes field, bits 0-2.
const (
	codecNone   = 0
	codecGzip   = 1
	codecSnappy = 2
	codecLZ4    = 3
	codecZstd   = 4
)

func decompressRecords(data []byte, codec byte) ([]byte, error) {
	switch codec {
	case codecGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case codecSnappy:
		return s2.Decode(nil, data)
	case codecLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		return io.ReadAll(r)
	case codecZstd:
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unsupported compression codec %d", codec)
	}
}
