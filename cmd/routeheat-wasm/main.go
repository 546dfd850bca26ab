//go:build js && wasm
// +build js,wasm

// Command routeheat-wasm exposes a canonical-tile-URL builder to browser
// code, so a client can construct the request a running `routeheat serve`
// instance expects without duplicating the query-parameter contract in
// JavaScript.
package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"syscall/js"
)

// TileRequest mirrors the query parameters accepted by GET /tiles/{z}/{x}/{y}.png.
type TileRequest struct {
	Zoom         int    `json:"zoom"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Gradient     string `json:"gradient"`
	ActivityType string `json:"activityType"`
	Midpoint     int    `json:"midpoint"`
}

type TileResponse struct {
	Path string `json:"path"`
}

func buildTileURL(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]string{"error": "missing arguments"}
	}

	var req TileRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return map[string]string{"error": fmt.Sprintf("failed to parse request: %v", err)}
	}

	path := fmt.Sprintf("/tiles/%d/%d/%d.png", req.Zoom, req.X, req.Y)

	var params []string
	if req.Gradient != "" {
		params = append(params, "gradient="+req.Gradient)
	}
	if req.ActivityType != "" {
		params = append(params, "activity_type="+req.ActivityType)
	}
	if req.Midpoint > 0 {
		params = append(params, fmt.Sprintf("midpoint=%d", req.Midpoint))
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}

	return TileResponse{Path: path}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("routeheatBuildTileURL", js.FuncOf(buildTileURL))

	fmt.Println("routeheat WASM module loaded")
	<-c
}
