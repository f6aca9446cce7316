package meta

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pior/framing"
)

func benchmarkResponses(b *testing.B, input []byte) {
	p, err := framing.NewProcessor[*Response](&ResponseRule{}, framing.Config{})
	if err != nil {
		b.Fatal(err)
	}
	sink := func(*Response) {}
	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for b.Loop() {
		if err := p.Process(input, sink); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark decoding HD response
func BenchmarkResponseRule_HD(b *testing.B) {
	benchmarkResponses(b, []byte("HD\r\n"))
}

// Benchmark decoding HD response with flags
func BenchmarkResponseRule_HDWithFlags(b *testing.B) {
	benchmarkResponses(b, []byte("HD c12345 t3600 f0 s1024\r\n"))
}

// Benchmark decoding small value response
func BenchmarkResponseRule_SmallValue(b *testing.B) {
	benchmarkResponses(b, []byte("VA 5\r\nhello\r\n"))
}

// Benchmark decoding large value response (10KB)
func BenchmarkResponseRule_LargeValue(b *testing.B) {
	value := strings.Repeat("x", 10*1024)
	benchmarkResponses(b, []byte("VA 10240\r\n"+value+"\r\n"))
}

// Benchmark decoding a large value delivered in 1KB chunks
func BenchmarkResponseRule_LargeValueChunked(b *testing.B) {
	value := strings.Repeat("x", 64*1024)
	input := []byte("VA 65536 c1\r\n" + value + "\r\n")

	p, err := framing.NewProcessor[*Response](&ResponseRule{}, framing.Config{})
	if err != nil {
		b.Fatal(err)
	}
	sink := func(*Response) {}
	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for b.Loop() {
		for data := input; len(data) > 0; {
			n := min(len(data), 1024)
			if err := p.Process(data[:n], sink); err != nil {
				b.Fatal(err)
			}
			data = data[n:]
		}
	}
}

// Benchmark decoding a pipelined batch closed by MN
func BenchmarkResponseRule_Pipeline(b *testing.B) {
	var input bytes.Buffer
	for range 10 {
		input.WriteString("VA 5 Oabc\r\nhello\r\nEN\r\n")
	}
	input.WriteString("MN\r\n")
	benchmarkResponses(b, input.Bytes())
}

// Benchmark encoding a get request with flags
func BenchmarkAppendRequest_GetWithFlags(b *testing.B) {
	req := NewRequest(CmdGet, "mykey", nil).AddReturnValue().AddReturnCAS().AddReturnTTL().AddOpaque("token123")
	buf := make([]byte, 0, 256)
	b.ResetTimer()

	for b.Loop() {
		var err error
		buf, err = AppendRequest(buf[:0], req)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark encoding a set request (1KB)
func BenchmarkAppendRequest_Set(b *testing.B) {
	req := NewRequest(CmdSet, "mykey", bytes.Repeat([]byte("x"), 1024))
	buf := make([]byte, 0, 2048)
	b.ResetTimer()

	for b.Loop() {
		var err error
		buf, err = AppendRequest(buf[:0], req)
		if err != nil {
			b.Fatal(err)
		}
	}
}
