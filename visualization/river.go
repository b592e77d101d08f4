package visualization

import (
	"fmt"
	"math"
	"strings"

	"github.com/quantumfork/whatif/models"
)

// Renderer draws the "River of Destiny" SVG: a main stem that forks into
// one curved branch per life path, with event nodes along each branch.
type Renderer struct {
	width  int
	height int
}

var branchColors = []string{"#FF6B6B", "#FFD700", "#4ECDC4", "#F093FB"}

const mainRiverColor = "#667eea"

// NewRenderer creates a renderer with the given canvas size
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	return &Renderer{width: width, height: height}
}

// Render produces the full SVG document for a simulation
func (r *Renderer) Render(sim *models.Simulation) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, r.width, r.height)
	b.WriteString(styleBlock)
	r.writeBackground(&b)
	r.writeTitle(&b, sim.Decision)

	startX := float64(r.width) / 2
	startY := 80.0
	forkY := 200.0
	endY := float64(r.height) - 100

	r.writeMainRiver(&b, startX, startY, forkY)

	spacing := float64(r.width) / float64(len(sim.Branches)+1)
	for i, branch := range sim.Branches {
		branchX := spacing * float64(i+1)
		color := branchColors[i%len(branchColors)]
		r.writeBranch(&b, branch, startX, forkY, branchX, endY, i, color)
	}

	r.writeLegend(&b)
	b.WriteString(`</svg>`)

	return b.String()
}

// AdaptForMobile injects a responsive viewBox for narrow screens
func (r *Renderer) AdaptForMobile(svg string, screenWidth int) string {
	if screenWidth >= 768 {
		return svg
	}
	return strings.Replace(svg, "<svg ",
		fmt.Sprintf(`<svg viewBox="0 0 %d %d" preserveAspectRatio="xMidYMid meet" `, r.width, r.height), 1)
}

const styleBlock = `<style>
.branch-path { stroke-width: 12; fill: none; opacity: 0.9; cursor: pointer; transition: all 0.3s ease; }
.branch-path:hover { stroke-width: 16; opacity: 1; }
.event-node { cursor: pointer; }
.branch-title { font-family: sans-serif; font-size: 18px; font-weight: 700; fill: #333; }
.decision-text { font-family: sans-serif; font-size: 24px; font-weight: 700; fill: #667eea; text-anchor: middle; }
.fate-score { font-family: sans-serif; font-size: 14px; fill: #764ba2; font-weight: 600; }
</style>`

func (r *Renderer) writeBackground(b *strings.Builder) {
	b.WriteString(`<defs><radialGradient id="bg-gradient" cx="50%" cy="50%" r="80%">`)
	b.WriteString(`<stop offset="0%" stop-color="#FFE5B4" stop-opacity="0.3"/>`)
	b.WriteString(`<stop offset="50%" stop-color="#FFD700" stop-opacity="0.1"/>`)
	b.WriteString(`<stop offset="100%" stop-color="#FF6B6B" stop-opacity="0.05"/>`)
	b.WriteString(`</radialGradient></defs>`)
	fmt.Fprintf(b, `<rect x="0" y="0" width="%d" height="%d" rx="20" ry="20" fill="url(#bg-gradient)"/>`, r.width, r.height)
}

func (r *Renderer) writeTitle(b *strings.Builder, decision string) {
	cx := r.width / 2
	fmt.Fprintf(b, `<rect x="%d" y="15" width="400" height="50" rx="25" ry="25" fill="rgba(255,255,255,0.8)" stroke="%s" stroke-width="3"/>`, cx-200, mainRiverColor)
	fmt.Fprintf(b, `<text x="%d" y="45" class="decision-text">%s</text>`, cx, escapeText(decision))
}

func (r *Renderer) writeMainRiver(b *strings.Builder, x, startY, forkY float64) {
	d := fmt.Sprintf("M %.0f,%.0f C %.0f,%.0f %.0f,%.0f %.0f,%.0f",
		x, startY, x, startY+50, x, forkY-50, x, forkY)
	fmt.Fprintf(b, `<path d="%s" stroke="%s" stroke-width="15" fill="none" opacity="0.9"/>`, d, mainRiverColor)
}

func (r *Renderer) writeBranch(b *strings.Builder, branch models.LifeBranch, startX, forkY, branchX, endY float64, index int, color string) {
	d := branchPath(startX, forkY, branchX, endY, index)
	fmt.Fprintf(b, `<path d="%s" stroke="%s" class="branch-path" id="branch-%d"/>`, d, color, branch.BranchID)

	titleY := forkY + 60
	fmt.Fprintf(b, `<text x="%.0f" y="%.0f" class="branch-title" text-anchor="middle">%s</text>`,
		branchX, titleY, escapeText(branch.Title))
	fmt.Fprintf(b, `<text x="%.0f" y="%.0f" class="fate-score" text-anchor="middle">Fate Score: %d/100</text>`,
		branchX, titleY+20, branch.FateScore)

	events := branch.KeyEvents
	if len(events) > 3 {
		events = events[:3]
	}
	for j, event := range events {
		t := float64(j+1) / float64(len(events)+1)
		nodeX, nodeY := pointOnBranch(startX, forkY, branchX, endY, t, index)

		b.WriteString(`<g class="event-node">`)
		fmt.Fprintf(b, `<circle cx="%.1f" cy="%.1f" r="10" fill="#FFFFFF" stroke="%s" stroke-width="4" id="event-%d-%d"/>`,
			nodeX, nodeY, color, branch.BranchID, j)
		fmt.Fprintf(b, `<polygon points="%s" fill="%s" opacity="0.8"/>`, starPoints(nodeX, nodeY, 5, 3), color)
		fmt.Fprintf(b, `<title>%s</title>`, escapeText(event))
		b.WriteString(`</g>`)
	}
}

func (r *Renderer) writeLegend(b *strings.Builder) {
	x := 20
	y := r.height - 80

	fmt.Fprintf(b, `<rect x="%d" y="%d" width="220" height="85" rx="15" ry="15" fill="#FFE5B4" stroke="#FFD700" stroke-width="3" opacity="0.95"/>`, x-15, y-30)
	fmt.Fprintf(b, `<text x="%d" y="%d" style="font-family: sans-serif; font-size: 16px; font-weight: 700; fill: %s;">Quest Guide:</text>`, x, y, mainRiverColor)

	items := []string{
		"Branches = Timeline Adventures",
		"Hover = Reveal Magic",
		"Events = Power-Up Points",
	}
	for i, item := range items {
		fmt.Fprintf(b, `<text x="%d" y="%d" style="font-family: sans-serif; font-size: 13px; fill: #333;">%s</text>`, x, y+20+i*18, item)
	}
}

// controlPoints returns the two cubic bezier control points for a
// branch. The horizontal offset is derived from the branch index so the
// curves fan out deterministically.
func controlPoints(startX, startY, endX, endY float64, index int) (c1x, c1y, c2x, c2y float64) {
	offset := (float64(index) - 1.5) * 10

	c1x = startX + (endX-startX)*0.3 + offset
	c1y = startY + (endY-startY)*0.3
	c2x = startX + (endX-startX)*0.7 + offset
	c2y = startY + (endY-startY)*0.7
	return c1x, c1y, c2x, c2y
}

// branchPath builds the cubic bezier path from the fork point to the
// branch end.
func branchPath(startX, startY, endX, endY float64, index int) string {
	c1x, c1y, c2x, c2y := controlPoints(startX, startY, endX, endY, index)

	return fmt.Sprintf("M %.0f,%.0f C %.1f,%.1f %.1f,%.1f %.0f,%.0f",
		startX, startY, c1x, c1y, c2x, c2y, endX, endY)
}

// pointOnBranch evaluates the branch bezier at t, placing event nodes on
// the drawn curve
func pointOnBranch(startX, startY, endX, endY, t float64, index int) (float64, float64) {
	c1x, c1y, c2x, c2y := controlPoints(startX, startY, endX, endY, index)

	u := 1 - t
	x := u*u*u*startX + 3*u*u*t*c1x + 3*u*t*t*c2x + t*t*t*endX
	y := u*u*u*startY + 3*u*u*t*c1y + 3*u*t*t*c2y + t*t*t*endY
	return x, y
}

// starPoints builds the vertices of a five-pointed star
func starPoints(cx, cy, outerR, innerR float64) string {
	points := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		angle := float64(i)*math.Pi/5 - math.Pi/2
		radius := outerR
		if i%2 == 1 {
			radius = innerR
		}
		x := cx + radius*math.Cos(angle)
		y := cy + radius*math.Sin(angle)
		points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	return strings.Join(points, " ")
}

// escapeText escapes the XML special characters for text content
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
