package termhw

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/loopcore/stompbox/looper/visual"
)

var bitmapLabels = map[visual.BitmapID]string{
	visual.BitmapDefault:          "idle",
	visual.BitmapChokeActive:      "CHOKE engaged",
	visual.BitmapFreezeActive:     "FREEZE engaged",
	visual.BitmapStutterCapture:   "STUTTER capturing",
	visual.BitmapStutterPlay:      "STUTTER playing",
	visual.BitmapQuant32:          "quant 1/32",
	visual.BitmapQuant16:          "quant 1/16",
	visual.BitmapQuant8:           "quant 1/8",
	visual.BitmapQuant4:           "quant 1/4",
	visual.BitmapChokeParamMode:   "CHOKE params",
	visual.BitmapFreezeParamMode:  "FREEZE params",
	visual.BitmapStutterParamMode: "STUTTER params",
}

func (b *Backend) render() {
	b.screen.Clear()
	termWidth, _ := b.screen.Size()

	title := " stompbox "
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, ch := range title {
		b.screen.SetContent(i, 0, ch, nil, titleStyle)
	}

	bitmapLine := fmt.Sprintf(" display: %s ", bitmapLabels[b.lastBitmap])
	bitmapStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	drawLine(b.screen, 0, 2, termWidth, bitmapLine, bitmapStyle)

	ledLine := fmt.Sprintf(" choke=%s freeze=%s stutter=%s beat=%s ",
		ledGlyph(b.ledColors[visual.EffectChoke]),
		ledGlyph(b.ledColors[visual.EffectFreeze]),
		ledGlyph(b.ledColors[visual.EffectStutter]),
		beatGlyph(b.beatOn))
	drawLine(b.screen, 0, 3, termWidth, ledLine, bitmapStyle)

	help := " j/k/l=choke/freeze/stutter h=func(hold) u/i o/p n/m=encoders [/]=quant 1-4=encoder press t/c/s=debug "
	helpStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	drawLine(b.screen, 0, 5, termWidth, help, helpStyle)

	for i, line := range b.printed {
		drawLine(b.screen, 0, 7+i, termWidth, line, bitmapStyle)
	}

	b.screen.Show()
}

func drawLine(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for i, ch := range text {
		if x+i >= width {
			break
		}
		screen.SetContent(x+i, y, ch, nil, style)
	}
}

func ledGlyph(c visual.LEDColor) string {
	switch c {
	case visual.LEDRed:
		return "red"
	case visual.LEDGreen:
		return "green"
	case visual.LEDBlue:
		return "blue"
	case visual.LEDCyan:
		return "cyan"
	case visual.LEDWhite:
		return "white"
	default:
		return "off"
	}
}

func beatGlyph(on bool) string {
	if on {
		return "*"
	}
	return "."
}
