//go:build linux

// Command cgurate prints or sets the output rate of one HSDK CGU PLL.
//
//	cgurate -pll core                     # print the current core clock
//	cgurate -pll core 1000000000          # reprogram it to 1 GHz
//	cgurate -pll gp -rates                # list achievable rates
package main

import (
	"flag"
	"os"
	"strconv"

	cgu "github.com/hsdk-go/clk/hsdk-cgu"
	"github.com/platinasystems/log"
)

var (
	dtbPath = flag.String("dtb", "/boot/hsdk.dtb", "flattened device tree blob")
	pllName = flag.String("pll", "gp", "PLL to act on: gp, hdmi or core")
	rates   = flag.Bool("rates", false, "list achievable rates and exit")
	verbose = flag.Bool("v", false, "trace register programming")
)

var variantByName = map[string]cgu.Variant{
	"gp":   cgu.VariantGP,
	"hdmi": cgu.VariantHDMI,
	"core": cgu.VariantCore,
}

func main() {
	flag.Parse()
	cgu.Debug = *verbose

	v, ok := variantByName[*pllName]
	if !ok {
		log.Print("unknown PLL name: ", *pllName)
		os.Exit(1)
	}

	dtb, err := os.ReadFile(*dtbPath)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}

	pll, err := cgu.Open(v, dtb)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	defer pll.Close()

	if *rates {
		for _, r := range pll.Rates() {
			log.Print(v, " pll: ", r, " Hz")
		}
		return
	}

	if flag.NArg() == 0 {
		log.Print(v, " pll: ", pll.Rate(), " Hz")
		return
	}

	want, err := strconv.ParseUint(flag.Arg(0), 10, 32)
	if err != nil {
		log.Print("bad rate: ", err)
		os.Exit(1)
	}
	got, err := pll.SetRate(uint32(want))
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	log.Print(v, " pll: set ", got, " Hz")
}
