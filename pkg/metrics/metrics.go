// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes the conversion pipeline's Prometheus gauges,
// scraped via the optional --metrics-addr endpoint on the convert
// subcommand. Useful when the tool is re-run repeatedly in CI and a
// regression in the discovered/converted function counts should show up as
// a graphable signal rather than only in the log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FunctionsDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imguictx",
		Name:      "functions_discovered",
		Help:      "Functions found by the discovery pass in the most recent convert run.",
	})

	FunctionsNeedingContext = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imguictx",
		Name:      "functions_needing_context",
		Help:      "Functions the closure solver flagged as needing an explicit context parameter.",
	})

	CallEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imguictx",
		Name:      "call_edges",
		Help:      "Call-graph edges recorded by the call-graph pass.",
	})

	EditsPlanned = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imguictx",
		Name:      "edits_planned",
		Help:      "Total textual edits enqueued against the source ledger.",
	})

	ConversionDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "imguictx",
		Name:      "conversion_duration_seconds",
		Help:      "Wall-clock duration of the most recent convert run.",
	})
)
