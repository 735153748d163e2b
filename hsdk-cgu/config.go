package cgu

// PLLConfig is one hardware-achievable output frequency together with the
// exact divider field encoding that reaches it. Entries are hand-authored
// per PLL variant and are selected from, never computed.
type PLLConfig struct {
	// Output frequency in Hz.
	Rate uint32
	// Input divider code, 5 bits. Effective divider is IDiv+1.
	IDiv uint32
	// Feedback divider code, 7 bits. Effective divider is 2*(FBDiv+1).
	FBDiv uint32
	// Output divider exponent, 2 bits. Effective divider is 1<<ODiv.
	ODiv uint32
	// Analog band select. Copied to the control register untouched.
	Band uint32
}

// asdtPLLCfg is shared by the core PLL and the generic system/tunnel/sdio
// PLLs. The zero entry terminates the table.
var asdtPLLCfg = []PLLConfig{
	{100000000, 0, 11, 3, 0},
	{133000000, 0, 15, 3, 0},
	{200000000, 1, 47, 3, 0},
	{233000000, 1, 27, 2, 0},
	{300000000, 1, 35, 2, 0},
	{333000000, 1, 39, 2, 0},
	{400000000, 1, 47, 2, 0},
	{500000000, 0, 14, 1, 0},
	{600000000, 0, 17, 1, 0},
	{700000000, 0, 20, 1, 0},
	{800000000, 0, 23, 1, 0},
	{900000000, 1, 26, 0, 0},
	{1000000000, 1, 29, 0, 0},
	{1100000000, 1, 32, 0, 0},
	{1200000000, 1, 35, 0, 0},
	{1300000000, 1, 38, 0, 0},
	{1400000000, 1, 41, 0, 0},
	{1500000000, 1, 44, 0, 0},
	{1600000000, 1, 47, 0, 0},
	{},
}

// hdmiPLLCfg encodes the HDMI pixel clock rates. The divider codes assume the
// HDMI PLL's own 27 MHz input upstream of the CGU crystal.
var hdmiPLLCfg = []PLLConfig{
	{297000000, 0, 21, 2, 0},
	{540000000, 0, 19, 1, 0},
	{594000000, 0, 21, 1, 0},
	{},
}

// Variant identifies which physical PLL instance type a controller drives.
type Variant uint8

const (
	// VariantGP covers the general purpose PLLs (system, sdio, tunnel).
	VariantGP Variant = iota
	// VariantHDMI is the HDMI pixel clock PLL.
	VariantHDMI
	// VariantCore is the CPU core PLL. It additionally owns the CREG
	// interface clock divider, adjusted around the 500 MHz threshold.
	VariantCore
)

const badVariant = "cgu: invalid PLL variant"

type variantData struct {
	cfgs       []PLLConfig
	prog       programmer
	needsIfDiv bool
}

var variants = [...]variantData{
	VariantGP:   {cfgs: asdtPLLCfg, prog: standard{}},
	VariantHDMI: {cfgs: hdmiPLLCfg, prog: standard{}},
	VariantCore: {cfgs: asdtPLLCfg, prog: coreWithIfDiv{}, needsIfDiv: true},
}

func (v Variant) data() *variantData {
	if int(v) >= len(variants) {
		panic(badVariant)
	}
	return &variants[v]
}

func (v Variant) String() string {
	switch v {
	case VariantGP:
		return "gp"
	case VariantHDMI:
		return "hdmi"
	case VariantCore:
		return "core"
	}
	return "unknown"
}
