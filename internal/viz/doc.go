// Package viz renders simulation results in the terminal.
//
//   - [Chart]: asciigraph line chart of one state component
//   - [Summary]: lipgloss panel with run status, solver statistics and metrics
//
// Nothing here touches the solver; everything works on a [dynamo.Result].
package viz
