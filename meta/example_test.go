package meta_test

import (
	"fmt"
	"log"

	"github.com/pior/framing"
	"github.com/pior/framing/meta"
)

// ExampleAppendRequest demonstrates request serialization.
func ExampleAppendRequest() {
	req := meta.NewRequest(meta.CmdGet, "mykey", nil).AddReturnValue()

	wire, err := meta.AppendRequest(nil, req)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%q", wire)
	// Output: "mg mykey v\r\n"
}

// ExampleResponseRule demonstrates responses parsed from a split stream.
func ExampleResponseRule() {
	p, err := framing.NewProcessor[*meta.Response](&meta.ResponseRule{}, framing.Config{})
	if err != nil {
		log.Fatal(err)
	}

	show := func(resp *meta.Response) {
		fmt.Printf("Status: %s Data: %q\n", resp.Status, resp.Data)
	}
	for _, chunk := range []string{"VA 5 c9\r\nhel", "lo\r\nEN\r", "\nMN\r\n"} {
		if err := p.Process([]byte(chunk), show); err != nil {
			log.Fatal(err)
		}
	}
	// Output:
	// Status: VA Data: "hello"
	// Status: EN Data: ""
	// Status: MN Data: ""
}

// ExampleResponse_CAS demonstrates reading a returned flag.
func ExampleResponse_CAS() {
	resps, err := framing.DecodeAll[*meta.Response](&meta.ResponseRule{}, framing.Config{}, []byte("HD c12345 t60\r\n"))
	if err != nil {
		log.Fatal(err)
	}

	cas, _ := resps[0].CAS()
	fmt.Println(cas)
	// Output: 12345
}

// Example_serverErrors shows which protocol errors keep the connection usable.
func Example_serverErrors() {
	input := []byte("SERVER_ERROR out of memory\r\nCLIENT_ERROR bad command line format\r\n")
	resps, err := framing.DecodeAll[*meta.Response](&meta.ResponseRule{}, framing.Config{}, input)
	if err != nil {
		log.Fatal(err)
	}

	for _, resp := range resps {
		fmt.Printf("%v close=%v\n", resp.Error, framing.ShouldCloseConnection(resp.Error))
	}
	// Output:
	// SERVER_ERROR: out of memory close=false
	// CLIENT_ERROR: bad command line format close=true
}
