// Command routeheat serves and prerenders GPS-track heatmap tiles.
package main

import "github.com/MeKo-Tech/routeheat/internal/cmd"

func main() {
	cmd.Execute()
}
