package hwlib_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/hdl"
	"github.com/db47h/hdl/bits"
	"github.com/db47h/hdl/hwlib"
	"github.com/db47h/hdl/hwtest"
)

func must[T any](v T, err error) T {
	Expect(err).NotTo(HaveOccurred())
	return v
}

var _ = Describe("Verilog generation", func() {
	DescribeTable("every block should be fully connected and lower to Verilog",
		func(name string, newLogic func() hdl.Logic) {
			v := hwtest.Verilog(GinkgoT(), newLogic())
			Expect(v).To(ContainSubstring("module top("))
			Expect(v).To(MatchRegexp(`(?m)^endmodule // top$`))
			Expect(strings.Count(v, "\nmodule ")).To(Equal(strings.Count(v, "\nendmodule // ")))
			hwtest.Validate(GinkgoT(), name, newLogic())
		},
		Entry("DFF", "dff", func() hdl.Logic { return hwlib.NewDFF(bits.Zero(8)) }),
		Entry("ResetDFF", "reset_dff", func() hdl.Logic { return hwlib.NewResetDFF(hdl.Bit(false), true) }),
		Entry("Adder", "adder", func() hdl.Logic { return hwlib.NewAdder(8) }),
		Entry("Counter", "counter", func() hdl.Logic { return hwlib.NewCounter(8) }),
		Entry("Mux", "mux", func() hdl.Logic { return must(hwlib.NewMux(5, bits.Zero(8))) }),
		Entry("Strobe", "strobe", func() hdl.Logic { return must(hwlib.NewStrobe(32, 1e6, 10)) }),
		Entry("Shot", "shot", func() hdl.Logic { return must(hwlib.NewShot(16, time.Millisecond, 1e6)) }),
		Entry("Pulser", "pulser", func() hdl.Logic { return must(hwlib.NewPulser(1e6, 10, time.Millisecond)) }),
		Entry("PWM", "pwm", func() hdl.Logic { return hwlib.NewPWM(8) }),
		Entry("EdgeDetector", "edge_detector", func() hdl.Logic { return hwlib.NewEdgeDetector(true) }),
		Entry("BitSynchronizer", "bit_synchronizer", func() hdl.Logic { return hwlib.NewBitSynchronizer() }),
		Entry("PulseSynchronizer", "pulse_synchronizer", func() hdl.Logic { return hwlib.NewPulseSynchronizer() }),
		Entry("ResetSynchronizer", "reset_synchronizer", func() hdl.Logic { return hwlib.NewResetSynchronizer() }),
		Entry("ROM", "rom", func() hdl.Logic { return must(hwlib.NewROM(4, vecs(8, 1, 2, 3), bits.Zero(8))) }),
		Entry("SyncROM", "sync_rom", func() hdl.Logic { return must(hwlib.NewSyncROM(4, vecs(8, 1, 2, 3), bits.Zero(8))) }),
		Entry("RAM", "ram", func() hdl.Logic { return must(hwlib.NewRAM(4, vecs(8, 1, 2, 3), bits.Zero(8))) }),
		Entry("SyncFIFO", "sync_fifo", func() hdl.Logic { return must(hwlib.NewSyncFIFO(4, 2, bits.Zero(8))) }),
		Entry("AsyncFIFO", "async_fifo", func() hdl.Logic { return must(hwlib.NewAsyncFIFO(4, bits.Zero(8))) }),
		Entry("TristateBuffer", "tristate", func() hdl.Logic { return newSharedBus() }),
		Entry("state machine", "fsm", func() hdl.Logic { return newMachine() }),
	)

	It("should share the definition of identical registers", func() {
		v := hwtest.Verilog(GinkgoT(), must(hwlib.NewAsyncFIFO(4, bits.Zero(8))))
		// the eight pointer registers have the same width and initial value
		Expect(v).To(ContainSubstring("top$read_gray read_gray_sync_1("))
		Expect(v).To(ContainSubstring("top$read_gray write_ptr("))
		Expect(v).NotTo(ContainSubstring("module top$read_gray_sync_1("))
	})
})
