/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package bitfix

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

type patchInfo struct {
	Source  string `json:"source"`
	Label   string `json:"label"`
	Pattern string `json:"pattern"`
}

func describeCatalog(catalog *Catalog) []patchInfo {
	result := make([]patchInfo, 0, catalog.Len())
	for _, def := range catalog.Definitions() {
		result = append(result, patchInfo{
			Source:  def.Source,
			Label:   def.Label,
			Pattern: def.Compiled().String(),
		})
	}
	return result
}

func describeFailures(failures []*CallbackError) []string {
	result := make([]string, 0, len(failures))
	for _, failure := range failures {
		result = append(result, failure.Error())
	}
	return result
}

// parseArgs splits a multi-line argument list. Lines starting with # are
// comments; "-flag value" lines become two arguments.
func parseArgs(text string) []string {
	var args []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			continue
		}

		if line[0] == '-' || line[0] == '+' {
			idx := strings.IndexRune(line, ' ')
			if idx == -1 {
				args = append(args, line)
			} else {
				args = append(args, line[0:idx], line[idx+1:])
			}
		} else {
			args = append(args, line)
		}
	}
	return args
}

func parseHexBytes(text string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(text), ""))
}

// NewServer builds the control panel. events may be nil, in which case the
// log stream is not served.
func NewServer(config *Config, events *Broadcaster) *gin.Engine {
	r := gin.Default()

	r.GET("/patches", func(c *gin.Context) {
		sources, err := config.PatchSources()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"error":       "source_error",
				"description": err.Error(),
			})
			return
		}

		catalog, err := LoadCatalog(sources)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"error":       "script_error",
				"description": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"patches": describeCatalog(catalog)})
	})

	loadScript := func(c *gin.Context, script string) (*Catalog, error) {
		name := c.PostForm("name")
		if name == "" {
			name = "panel"
		}

		catalog, err := LoadCatalog([]PatchSource{{Name: name, Body: script}})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"error":       "script_error",
				"description": err.Error(),
			})
			return nil, err
		}

		return catalog, nil
	}

	r.POST("/check", func(c *gin.Context) {
		var p struct {
			Script string `form:"script"`
		}

		if err := c.ShouldBind(&p); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		catalog, err := loadScript(c, p.Script)
		if err != nil {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"patches": describeCatalog(catalog),
		})
	})

	r.POST("/dryrun", func(c *gin.Context) {
		var p struct {
			Script string `form:"script"`
			Bytes  string `form:"bytes"`
			Base   string `form:"base"`
		}

		if err := c.ShouldBind(&p); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		data, err := parseHexBytes(p.Bytes)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"error":       "bad_bytes",
				"description": err.Error(),
			})
			return
		}

		var base uint64
		if p.Base != "" {
			base, err = strconv.ParseUint(strings.TrimPrefix(p.Base, "0x"), 16, 64)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusOK, gin.H{
					"error":       "bad_base",
					"description": err.Error(),
				})
				return
			}
		}

		catalog, err := loadScript(c, p.Script)
		if err != nil {
			return
		}

		mem := NewVirtualMemory()
		mem.EnableJournal()
		mem.MapPage(uintptr(base), data)

		report, err := ExecPatches(mem, catalog)
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}

		changes := make([]Change, 0, len(mem.Journal()))
		for _, rec := range mem.Journal() {
			changes = append(changes, Change{Address: rec.Address, Old: rec.Old, New: rec.New})
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"bytes":    fmt.Sprintf("% X", data),
			"matches":  report.Matches,
			"changes":  changes,
			"failures": describeFailures(report.Failures),
		})
	})

	r.POST("/run", func(c *gin.Context) {
		var p struct {
			Path string `form:"path"`
			Args string `form:"args"`
		}

		if err := c.ShouldBind(&p); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		err := Launch(config.LibraryPath(), p.Path, parseArgs(p.Args)...)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{
				"error":       "launch_error",
				"description": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	if events != nil {
		r.GET("/log/ws", func(c *gin.Context) {
			handler := websocket.Handler(func(ws *websocket.Conn) {
				defer ws.Close()
				enc := json.NewEncoder(ws)

				// The client never sends anything, a read only returns
				// once it goes away.
				ctx, cancel := context.WithCancel(c.Request.Context())
				defer cancel()
				go func() {
					defer cancel()
					io.Copy(io.Discard, ws)
				}()

				ch := events.Subscribe(ctx)
				for {
					select {
					case <-ctx.Done():
						return
					case event, ok := <-ch:
						if !ok {
							return
						}
						err := enc.Encode(event)
						if err != nil {
							return
						}
					}
				}
			})
			handler.ServeHTTP(c.Writer, c.Request)
		})
	}

	return r
}

// Serve runs the control panel on config.Listen until it fails.
func Serve(config *Config) error {
	events := NewBroadcaster()
	AddLogHook(events.Hook())

	gin.SetMode(gin.ReleaseMode)
	r := NewServer(config, events)

	l, err := net.Listen("tcp", config.Listen)
	if err != nil {
		return fmt.Errorf("cannot listen on %s: %w", config.Listen, err)
	}

	Log().Infof("Starting up a server on http://%s/", config.Listen)
	return r.RunListener(l)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
