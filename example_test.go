package marquee_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DrJosh9000/marquee"
	"github.com/DrJosh9000/marquee/st7066"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func ExamplePlayer() {
	host.Init()
	bus := &st7066.Bus{
		RS: gpioreg.ByName("27"),
		RW: gpioreg.ByName("20"),
		E:  gpioreg.ByName("26"),
		DB: [8]gpio.PinIO{
			0: gpioreg.ByName("19"),
			1: gpioreg.ByName("25"),
			2: gpioreg.ByName("18"),
			3: gpioreg.ByName("24"),
			4: gpioreg.ByName("17"),
			5: gpioreg.ByName("23"),
			6: gpioreg.ByName("16"),
			7: gpioreg.ByName("22"),
		},
	}
	dev, err := st7066.New(bus, &st7066.Opts{Rows: 2, Cols: 16})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := dev.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	text := "Hello World!"
	if len(os.Args) > 1 {
		text = os.Args[1]
	}
	seq := marquee.Sequence{
		Strip: marquee.NewStripString(text),
		Step:  1,
		Gap:   marquee.GapSkip,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	p := marquee.NewPlayer(dev, nil)
	if err := p.Play(ctx, seq); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	fmt.Printf("%+v\n", p.Stats())
}
