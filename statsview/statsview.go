// This file is part of Pipesim.
//
// Pipesim is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Pipesim is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Pipesim.  If not, see <https://www.gnu.org/licenses/>.

package statsview

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/pipesim/pipesim/logger"
)

// DefaultAddress is the address used if Launch() is given an empty string.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// how often the charts are updated.
const interval = 2 * time.Second

// Launch a new goroutine running the statsview server. The URL of the
// statistics page is written to output. The returned function stops the
// server.
func Launch(output io.Writer, addr string) (stop func()) {
	if addr == "" {
		addr = DefaultAddress
	}

	viewer.SetConfiguration(viewer.WithAddr(addr), viewer.WithInterval(int(interval.Milliseconds())))
	mgr := statsview.New()

	go func() {
		mgr.Start()
	}()

	logger.Logf("statsview", "running at %s%s", addr, url)
	fmt.Fprintf(output, "stats server available at %s%s\n", addr, url)

	return mgr.Stop
}
