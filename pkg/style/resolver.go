package style

// Resolve maps a generic property bag to a normalized Style.
//
// Shorthands (margin, padding, inset, border, boxShadow) are expanded
// first; explicitly named per-side properties are applied afterwards so
// they always take precedence regardless of bag ordering.
func Resolve(props map[string]any) Style {
	st := Default()
	if len(props) == 0 {
		return st
	}

	// Pass 1: shorthands.
	if v, ok := props["margin"]; ok {
		st.Margin = ExpandSides(v)
	}
	if v, ok := props["padding"]; ok {
		st.Padding = ExpandSides(v)
	}
	if v, ok := props["inset"]; ok {
		st.Inset = ExpandSides(v)
	}
	if v, ok := props["border"]; ok {
		b := ParseBorder(v)
		st.BorderWidth = b.Width
		st.BorderStyle = b.Style
		st.BorderColor = b.Color
	}
	if v, ok := props["boxShadow"]; ok {
		sh := ParseShadow(v)
		st.ShadowOffsetX = sh.OffsetX
		st.ShadowOffsetY = sh.OffsetY
		st.ShadowBlur = sh.Blur
		st.ShadowColor = sh.Color
		st.HasShadow = true
	}

	// Pass 2: explicit properties override expanded shorthands.
	for key, v := range props {
		switch key {
		case "width":
			st.Width = ParseSize(v)
		case "height":
			st.Height = ParseSize(v)
		case "marginTop":
			st.Margin.Top = ParseSize(v)
		case "marginRight":
			st.Margin.Right = ParseSize(v)
		case "marginBottom":
			st.Margin.Bottom = ParseSize(v)
		case "marginLeft":
			st.Margin.Left = ParseSize(v)
		case "paddingTop":
			st.Padding.Top = ParseSize(v)
		case "paddingRight":
			st.Padding.Right = ParseSize(v)
		case "paddingBottom":
			st.Padding.Bottom = ParseSize(v)
		case "paddingLeft":
			st.Padding.Left = ParseSize(v)
		case "top":
			st.Inset.Top = ParseSize(v)
		case "right":
			st.Inset.Right = ParseSize(v)
		case "bottom":
			st.Inset.Bottom = ParseSize(v)
		case "left":
			st.Inset.Left = ParseSize(v)
		case "borderWidth":
			st.BorderWidth = ParseSize(v)
		case "borderStyle":
			if s, ok := v.(string); ok {
				if bs, known := borderStyleKeywords[s]; known {
					st.BorderStyle = bs
				}
			}
		case "borderColor":
			st.BorderColor = ParseColor(v)
		case "background", "backgroundColor":
			st.Background = ParseColor(v)
			st.HasBackground = true
		case "color":
			st.TextColor = ParseColor(v)
			st.HasTextColor = true
		case "fontSize":
			st.FontSize = ParseSize(v)
		case "opacity":
			st.Opacity = ParseSize(v)
		}
	}

	return st
}
