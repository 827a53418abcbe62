// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Command ufl inspects and maintains a compiled-form signature cache.
//
//	ufl -cache-file forms.db len
//	ufl -cache-file forms.db get <hex-signature>
//	ufl -cache-file forms.db put <hex-signature> <payload>
//	ufl -cache-file forms.db delete <hex-signature>
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/conpierce8/ufl/cache"
	"github.com/conpierce8/ufl/config"
	"github.com/conpierce8/ufl/sig"
)

func main() {

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, e := cache.Open(config.CacheFile)
	if e != nil {
		log.Fatalln(e)
	}
	defer c.Close()

	if config.Verbose {
		log.Println("cache file:", config.CacheFile)
	}

	switch args[0] {

	case "len":
		fmt.Println(c.Len())

	case "get":
		s := parseSignature(args)
		payload, e := c.Get(s)
		if e != nil {
			log.Fatalln(e)
		}
		os.Stdout.Write(payload)

	case "put":
		if len(args) < 3 {
			log.Fatalln("put requires a signature and a payload")
		}
		s := parseSignature(args)
		if e := c.Put(s, []byte(args[2])); e != nil {
			log.Fatalln(e)
		}
		if config.Verbose {
			log.Println("stored payload for", s)
		}

	case "delete":
		s := parseSignature(args)
		if e := c.Delete(s); e != nil {
			log.Fatalln(e)
		}
		if config.Verbose {
			log.Println("deleted payload for", s)
		}

	default:
		log.Fatalf("unknown command: %s", args[0])
	}
}

func parseSignature(args []string) sig.Signature {
	if len(args) < 2 {
		log.Fatalln("command requires a hex-encoded signature argument")
	}
	bs, e := hex.DecodeString(args[1])
	if e != nil {
		log.Fatalln("signature must be hex-encoded:", e)
	}
	s := sig.Signature{}
	if len(bs) != len(s) {
		log.Fatalf("signature must be %d bytes, have %d", len(s), len(bs))
	}
	copy(s[:], bs)
	return s
}
