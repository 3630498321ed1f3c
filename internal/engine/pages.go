package engine

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/piwi3910/PatternNest/internal/geometry"
	"github.com/piwi3910/PatternNest/internal/model"
)

// UnitePagesLimit is the longest united page in mm: the 65535 px ceiling
// of common raster formats at 96 dpi.
const UnitePagesLimit = 65535.0 / 96.0 * 25.4

// page is a finished sheet in printable-area coordinates.
type page struct {
	width      float64
	height     float64
	placements []model.Placement
}

func pageFromPaper(p *Paper) page {
	return page{width: p.Width(), height: p.Height(), placements: p.Placements()}
}

func (pg page) bounds() r2.Rect {
	r := r2.EmptyRect()
	for _, pl := range pg.placements {
		r = r.AddPoint(r2.Point{X: pl.Min.X, Y: pl.Min.Y}).AddPoint(r2.Point{X: pl.Max.X, Y: pl.Max.Y})
	}
	return r
}

// length is the page extent along the growth axis.
func (pg page) length(portrait bool) float64 {
	if portrait {
		return pg.height
	}
	return pg.width
}

func (pg *page) setLength(portrait bool, l float64) {
	if portrait {
		pg.height = l
	} else {
		pg.width = l
	}
}

// usedLength is how far the pieces and their half gap reach along the
// growth axis, never more than the page itself.
func (pg page) usedLength(portrait bool, gap float64) float64 {
	r := pg.bounds()
	if r.IsEmpty() {
		return 0
	}
	hi := r.Hi().X
	if portrait {
		hi = r.Hi().Y
	}
	return math.Min(hi+gap/2, pg.length(portrait))
}

func movePlacement(pl model.Placement, dx, dy float64) model.Placement {
	pl.Transform = model.Translation(dx, dy).Compose(pl.Transform)
	pl.Outline = pl.Outline.Translate(dx, dy)
	pl.Min = model.Point2D{X: pl.Min.X + dx, Y: pl.Min.Y + dy}
	pl.Max = model.Point2D{X: pl.Max.X + dx, Y: pl.Max.Y + dy}
	return pl
}

func (pg page) moved(dx, dy float64) []model.Placement {
	out := make([]model.Placement, len(pg.placements))
	for i, pl := range pg.placements {
		out[i] = movePlacement(pl, dx, dy)
	}
	return out
}

// along returns an offset vector on the growth axis.
func along(portrait bool, offset float64) (float64, float64) {
	if portrait {
		return 0, offset
	}
	return offset, 0
}

// gatherStrips stacks strips along the growth axis into pages of the full
// size, opening a new page when the next strip would run past the end.
func gatherStrips(strips []page, pageW, pageH, gap float64) []page {
	portrait := pageH >= pageW
	limit := pageH
	if !portrait {
		limit = pageW
	}
	var out []page
	cur := page{width: pageW, height: pageH}
	var offset float64
	for _, s := range strips {
		l := s.usedLength(portrait, gap)
		if len(cur.placements) > 0 && offset+l > limit+geometry.Eps {
			out = append(out, cur)
			cur = page{width: pageW, height: pageH}
			offset = 0
		}
		cur.placements = append(cur.placements, s.moved(along(portrait, offset))...)
		offset += l
	}
	if len(cur.placements) > 0 {
		out = append(out, cur)
	}
	return out
}

// cropWidth moves the pieces of every page to the start of the
// non-growth axis.
func cropWidth(pages []page, portrait bool) {
	for i := range pages {
		r := pages[i].bounds()
		if r.IsEmpty() {
			continue
		}
		if portrait {
			pages[i].placements = pages[i].moved(-r.Lo().X, 0)
		} else {
			pages[i].placements = pages[i].moved(0, -r.Lo().Y)
		}
	}
}

// cropLength shortens every page to the extent of its pieces.
func cropLength(pages []page, portrait bool) {
	for i := range pages {
		r := pages[i].bounds()
		if r.IsEmpty() {
			continue
		}
		hi := r.Hi().X
		if portrait {
			hi = r.Hi().Y
		}
		pages[i].setLength(portrait, math.Min(hi, pages[i].length(portrait)))
	}
}

// unitePages joins consecutive pages along the growth axis while the
// united page stays within limit.
func unitePages(pages []page, portrait bool, limit float64) []page {
	var out []page
	var cur *page
	for _, pg := range pages {
		l := pg.length(portrait)
		if cur != nil && cur.length(portrait)+l > limit+geometry.Eps {
			out = append(out, *cur)
			cur = nil
		}
		if cur == nil {
			next := pg
			next.placements = append([]model.Placement(nil), pg.placements...)
			cur = &next
			continue
		}
		offset := cur.length(portrait)
		cur.placements = append(cur.placements, pg.moved(along(portrait, offset))...)
		cur.setLength(portrait, offset+l)
		if portrait {
			cur.width = math.Max(cur.width, pg.width)
		} else {
			cur.height = math.Max(cur.height, pg.height)
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// toSheets adds the paper margins back around every page.
func toSheets(pages []page, m model.Margins) []model.SheetResult {
	sheets := make([]model.SheetResult, len(pages))
	for i, pg := range pages {
		sheets[i] = model.SheetResult{
			Width:      pg.width + m.Left + m.Right,
			Height:     pg.height + m.Top + m.Bottom,
			Margins:    m,
			Placements: pg.placements,
		}
	}
	return sheets
}
