// Package cgu drives the PLL frequency generators in the Synopsys HSDK SDP
// clock generation unit. Each PLL is programmed by picking the table entry
// nearest a requested rate, writing its divider fields to the control
// register and waiting for the hardware to report lock.
package cgu

import (
	"errors"
	"time"

	"github.com/platinasystems/log"
)

// CGU PLL errors.
var (
	ErrLockTimeout   = errors.New("cgu: PLL not locked after settle window")
	ErrInvalidConfig = errors.New("cgu: no usable PLL configuration")
	ErrMissingIfDiv  = errors.New("cgu: core PLL requires interface divider registers")
	ErrNoDevice      = errors.New("cgu: no device tree node for PLL variant")
)

// Debug enables diagnostic traces of register programming and rate selection.
var Debug bool

const (
	// RefHz is the CGU input crystal frequency. Fixed on the board, not
	// configurable per instance.
	RefHz = 33333333

	ctrlODivShift  = 2
	ctrlIDivShift  = 4
	ctrlFBDivShift = 9
	ctrlBandShift  = 20

	ctrlODivMask  = 0x3 << ctrlODivShift   // bits [3:2]
	ctrlIDivMask  = 0x1f << ctrlIDivShift  // bits [8:4]
	ctrlFBDivMask = 0x7f << ctrlFBDivShift // bits [15:9]

	ctrlPD     = 1 << 0
	ctrlBypass = 1 << 1

	statusLock = 1 << 0
	statusErr  = 1 << 1

	// lockWait is the hardware lock detection latency. The PLL either
	// locks within this window or it never will.
	lockWait = 100 * time.Microsecond

	// Above this core clock rate the CREG interface clock divider must
	// run at div-by-2.
	ifClkThresholdHz = 500000000
	ifClkDiv1        = 0x0
	ifClkDiv2        = 0x1
)

// PLLRegs mirrors one CGU PLL register block.
type PLLRegs struct {
	CTRL   uint32 // 0x00
	STATUS uint32 // 0x04
	FMEAS  uint32 // 0x08 frequency measurement, unused
	MON    uint32 // 0x0C monitor, unused
}

// PLL drives one CGU PLL instance. The register blocks are exclusively owned
// by the controller; callers in a multi-threaded host must serialize access
// themselves.
type PLL struct {
	regs *PLLRegs
	// CREG interface clock divider word, VariantCore only.
	ifdiv *uint32
	cfgs  []PLLConfig
	prog  programmer
	// /dev/mem mappings owned by Open; nil when built with NewPLL.
	mems [][]byte
}

// NewPLL builds a controller from already-mapped register blocks. ifdiv is
// the CREG interface clock divider word, required for VariantCore and unused
// otherwise. Most callers want Open, which locates and maps the blocks.
func NewPLL(v Variant, regs *PLLRegs, ifdiv *uint32) (*PLL, error) {
	d := v.data()
	if d.needsIfDiv && ifdiv == nil {
		return nil, ErrMissingIfDiv
	}
	return &PLL{regs: regs, ifdiv: ifdiv, cfgs: d.cfgs, prog: d.prog}, nil
}

// Rate decodes the PLL's current output rate from live hardware state.
// It returns 0 for a powered-down PLL and the crystal rate when bypassed.
func (p *PLL) Rate() uint32 {
	val := p.regs.CTRL

	if Debug {
		log.Printf("cgu: ctrl %#x", val)
	}

	if val&ctrlPD != 0 {
		return 0
	}
	if val&ctrlBypass != 0 {
		return RefHz
	}

	// input divider = reg.idiv + 1
	idiv := 1 + (val&ctrlIDivMask)>>ctrlIDivShift
	// feedback divider = 2*(reg.fbdiv + 1)
	fbdiv := 2 * (1 + (val&ctrlFBDivMask)>>ctrlFBDivShift)
	// output divider = 2^reg.odiv
	odiv := uint32(1) << ((val & ctrlODivMask) >> ctrlODivShift)

	// RefHz*fbdiv overflows 32 bits at high multipliers.
	return uint32(uint64(RefHz) * uint64(fbdiv) / uint64(idiv*odiv))
}

// RoundRate returns the achievable rate nearest to rate. Ties go to the
// lower-indexed table entry. ErrInvalidConfig if the table is empty.
func (p *PLL) RoundRate(rate uint32) (uint32, error) {
	if len(p.cfgs) == 0 || p.cfgs[0].Rate == 0 {
		return 0, ErrInvalidConfig
	}

	best := p.cfgs[0].Rate
	for i := 1; i < len(p.cfgs) && p.cfgs[i].Rate != 0; i++ {
		if absDiff(rate, p.cfgs[i].Rate) < absDiff(rate, best) {
			best = p.cfgs[i].Rate
		}
	}

	if Debug {
		log.Print("cgu: best rate ", best, " for ", rate)
	}

	return best, nil
}

// SetRate programs the PLL to the achievable rate nearest to rate and waits
// for lock. It returns the rate actually programmed, which differs from the
// request whenever the request is not an exact table value. The calling
// goroutine blocks for the settle window; there is no abort path once the
// register write is issued.
func (p *PLL) SetRate(rate uint32) (uint32, error) {
	best, err := p.RoundRate(rate)
	if err != nil {
		return 0, err
	}

	for i := range p.cfgs {
		if p.cfgs[i].Rate == 0 {
			break
		}
		if p.cfgs[i].Rate == best {
			if err := p.prog.program(p, best, &p.cfgs[i]); err != nil {
				return 0, err
			}
			return best, nil
		}
	}

	// RoundRate picked the rate out of the same table, so a miss here
	// means the table changed underneath us.
	return 0, ErrInvalidConfig
}

// Rates returns the achievable output rates of this PLL, lowest first.
func (p *PLL) Rates() []uint32 {
	var rates []uint32
	for i := range p.cfgs {
		if p.cfgs[i].Rate == 0 {
			break
		}
		rates = append(rates, p.cfgs[i].Rate)
	}
	return rates
}

// ctrlValue assembles a control word for cfg. Power-down and bypass bits are
// left clear.
func ctrlValue(cfg *PLLConfig) uint32 {
	return cfg.IDiv<<ctrlIDivShift |
		cfg.FBDiv<<ctrlFBDivShift |
		cfg.ODiv<<ctrlODivShift |
		cfg.Band<<ctrlBandShift
}

func (p *PLL) setCfg(cfg *PLLConfig) {
	val := ctrlValue(cfg)
	if Debug {
		log.Printf("cgu: ctrl <- %#x", val)
	}
	p.regs.CTRL = val
}

// programmer is the hardware programming strategy for a PLL variant.
type programmer interface {
	program(p *PLL, rate uint32, cfg *PLLConfig) error
}

// standard programs the divider fields, waits out the settle window and
// checks lock and error status.
type standard struct{}

func (standard) program(p *PLL, _ uint32, cfg *PLLConfig) error {
	p.setCfg(cfg)

	// Wait until the CGU relocks. If it is still unlocked after the
	// settle window it never locks.
	time.Sleep(lockWait)
	if p.regs.STATUS&statusLock == 0 {
		return ErrLockTimeout
	}
	if p.regs.STATUS&statusErr != 0 {
		return ErrInvalidConfig
	}
	return nil
}

// coreWithIfDiv brackets the standard sequence with the CREG interface clock
// divider adjustment. The interface clock must never see an unscaled core
// clock above the threshold, even transiently, so div-by-2 is established
// before the PLL moves and relaxed only after the new rate is confirmed.
type coreWithIfDiv struct{}

func (coreWithIfDiv) program(p *PLL, rate uint32, cfg *PLLConfig) error {
	if rate > ifClkThresholdHz {
		*p.ifdiv = ifClkDiv2
	}

	if err := (standard{}).program(p, rate, cfg); err != nil {
		return err
	}

	// Back to div-by-1 once the core clock is confirmed at or below the
	// threshold. Redundant when it was never raised; the write is
	// idempotent.
	if rate <= ifClkThresholdHz {
		*p.ifdiv = ifClkDiv1
	}
	return nil
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
