package lifecycle

import (
	"github.com/hearthdesk/hearth/backend/internal/profile"
	"github.com/hearthdesk/hearth/backend/internal/shared/types"
)

// ComputeBounds places the content area to the right of the sidebar
// and below the top navigation bar. Dimensions never go negative.
func ComputeBounds(containerWidth, containerHeight, sidebarWidth, topNavHeight int) types.Bounds {
	width := containerWidth - sidebarWidth
	if width < 0 {
		width = 0
	}
	height := containerHeight - topNavHeight
	if height < 0 {
		height = 0
	}
	return types.Bounds{
		X:      sidebarWidth,
		Y:      topNavHeight,
		Width:  width,
		Height: height,
	}
}

// applyLayoutHints shrinks and repositions the view rectangle per the
// profile's presentation hints: edge padding first, then max content
// width with optional centering.
func applyLayoutHints(b types.Bounds, hints profile.LayoutHints) types.Bounds {
	pad := hints.Padding
	b.X += pad.Left
	b.Y += pad.Top
	b.Width -= pad.Left + pad.Right
	b.Height -= pad.Top + pad.Bottom
	if b.Width < 0 {
		b.Width = 0
	}
	if b.Height < 0 {
		b.Height = 0
	}

	if hints.MaxContentWidth > 0 && b.Width > hints.MaxContentWidth {
		excess := b.Width - hints.MaxContentWidth
		if hints.CenterContent {
			b.X += excess / 2
		}
		b.Width = hints.MaxContentWidth
	}
	return b
}
