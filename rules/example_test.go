package rules_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/pior/framing"
	"github.com/pior/framing/rules"
)

// ExampleLine shows lines reassembled from arbitrary chunks.
func ExampleLine() {
	p, err := framing.NewProcessor[[]byte](&rules.Line{}, framing.Config{})
	if err != nil {
		log.Fatal(err)
	}

	show := func(line []byte) { fmt.Printf("%q\n", line) }
	for _, chunk := range []string{"HELO exa", "mple.com\r\nMAIL FROM:<a@", "b>\r\nQUIT"} {
		if err := p.Process([]byte(chunk), show); err != nil {
			log.Fatal(err)
		}
	}
	if err := p.Finish(true, show); err != nil {
		log.Fatal(err)
	}
	// Output:
	// "HELO example.com"
	// "MAIL FROM:<a@b>"
	// "QUIT"
}

// ExampleLengthField decodes frames written by AppendLengthField.
func ExampleLengthField() {
	var wire []byte
	for _, msg := range []string{"first", "second"} {
		wire, _ = rules.AppendLengthField(wire, []byte(msg), 2, nil)
	}

	frames, err := framing.DecodeAll[[]byte](&rules.LengthField{Width: 2, Strip: true}, framing.Config{}, wire[:3], wire[3:])
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range frames {
		fmt.Println(string(f))
	}
	// Output:
	// first
	// second
}

// ExampleChecksum shows a corrupted frame being rejected.
func ExampleChecksum() {
	wire, _ := rules.AppendChecksumFrame(nil, []byte("important"))
	wire[6] = 'X'

	_, err := framing.DecodeAll[[]byte](&rules.Checksum{}, framing.Config{}, wire)
	var mismatch *rules.ChecksumError
	fmt.Println(errors.As(err, &mismatch), framing.ShouldCloseConnection(err))
	// Output: true true
}
