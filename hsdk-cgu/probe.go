package cgu

import (
	"github.com/platinasystems/fdt"
)

// Compatible strings the HSDK device tree uses for CGU PLL nodes.
const (
	compatGP   = "snps,hsdk-gp-pll-clock"
	compatHDMI = "snps,hsdk-hdmi-pll-clock"
	compatCore = "snps,hsdk-core-pll-clock"
)

func (v Variant) compatible() string {
	switch v {
	case VariantGP:
		return compatGP
	case VariantHDMI:
		return compatHDMI
	case VariantCore:
		return compatCore
	}
	panic(badVariant)
}

// RegRegion is one physical register region from a PLL node's reg property.
type RegRegion struct {
	Addr uint32
	Size uint32
}

// FindRegs locates the device tree node for variant v in the flattened device
// tree blob dtb and returns its register regions: the PLL block first and,
// for the core PLL, the CREG interface divider second. ErrNoDevice if the
// blob has no node for v, ErrMissingIfDiv if the core PLL node lacks its
// second region.
func FindRegs(dtb []byte, v Variant) ([]RegRegion, error) {
	t := &fdt.Tree{}
	if err := t.Parse(dtb); err != nil {
		return nil, err
	}

	var regions []RegRegion
	t.EachProperty("compatible", v.compatible(), func(n *fdt.Node, _, _ string) {
		if regions != nil {
			return
		}
		regs := t.PropUint32Slice(n.Properties["reg"])
		for i := 0; i+1 < len(regs); i += 2 {
			regions = append(regions, RegRegion{Addr: regs[i], Size: regs[i+1]})
		}
	})

	if regions == nil {
		return nil, ErrNoDevice
	}
	if v.data().needsIfDiv && len(regions) < 2 {
		return nil, ErrMissingIfDiv
	}
	return regions, nil
}
