package main

import (
	"fmt"
	"strings"

	"github.com/jeranaias/concierge/internal/ui/components"
	"github.com/jeranaias/concierge/internal/ui/styles"
)

func main() {
	w := components.NewWelcome(styles.NewTheme())
	w.SetDisclaimer("Conversations may be recorded for quality purposes.")
	w.SetSize(80, 24)
	view := w.View()
	fmt.Printf("contains phrase: %v\n", strings.Contains(view, "quality purposes"))
	for i, line := range strings.Split(view, "\n") {
		if i > 6 {
			break
		}
		fmt.Printf("%2d: %q\n", i, line)
	}
}
