package debug_utils

// / One Begin/End group recorded by DuDisplayList.
type DuBatch struct {
	Prim      DuDebugDrawPrimitives
	Size      float32
	DepthMask bool
	Start     int ///< First vertex of the batch.
	End       int ///< One past the last vertex of the batch.
}

// / Records primitives so that they can be inspected or replayed later.
type DuDisplayList struct {
	m_pos     []float32
	m_color   []Colorb
	m_batches []DuBatch

	m_depthMask bool
	m_open      bool
}

func NewDuDisplayList(cap int) *DuDisplayList {
	if cap < 8 {
		cap = 512
	}
	return &DuDisplayList{
		m_pos:       make([]float32, 0, cap*3),
		m_color:     make([]Colorb, 0, cap),
		m_depthMask: true,
	}
}

func (d *DuDisplayList) Clear() {
	d.m_pos = d.m_pos[:0]
	d.m_color = d.m_color[:0]
	d.m_batches = d.m_batches[:0]
	d.m_open = false
}

func (d *DuDisplayList) DepthMask(state bool) {
	d.m_depthMask = state
}

func (d *DuDisplayList) Begin(prim DuDebugDrawPrimitives, size ...float32) {
	s := float32(1)
	if len(size) > 0 {
		s = size[0]
	}
	d.m_batches = append(d.m_batches, DuBatch{
		Prim:      prim,
		Size:      s,
		DepthMask: d.m_depthMask,
		Start:     len(d.m_color),
		End:       len(d.m_color),
	})
	d.m_open = true
}

func (d *DuDisplayList) Vertex(x, y, z float32, color Colorb) {
	if !d.m_open {
		d.Begin(DU_DRAW_LINES)
	}
	d.m_pos = append(d.m_pos, x, y, z)
	d.m_color = append(d.m_color, color)
	d.m_batches[len(d.m_batches)-1].End = len(d.m_color)
}

func (d *DuDisplayList) End() {
	d.m_open = false
}

// / Number of recorded vertices.
func (d *DuDisplayList) Size() int { return len(d.m_color) }

func (d *DuDisplayList) Batches() []DuBatch { return d.m_batches }

// / Position and color of vertex @p i.
func (d *DuDisplayList) VertexAt(i int) (pos [3]float32, col Colorb) {
	copy(pos[:], d.m_pos[i*3:i*3+3])
	return pos, d.m_color[i]
}

// / Counts recorded vertices of the given color.
func (d *DuDisplayList) CountColor(col Colorb) (n int) {
	for _, c := range d.m_color {
		if c == col {
			n++
		}
	}
	return n
}

// / Replays every batch into @p dd.
func (d *DuDisplayList) Draw(dd DuDebugDraw) {
	if dd == nil {
		return
	}
	for _, b := range d.m_batches {
		if b.Start == b.End {
			continue
		}
		dd.DepthMask(b.DepthMask)
		dd.Begin(b.Prim, b.Size)
		for i := b.Start; i < b.End; i++ {
			dd.Vertex(d.m_pos[i*3], d.m_pos[i*3+1], d.m_pos[i*3+2], d.m_color[i])
		}
		dd.End()
	}
}
