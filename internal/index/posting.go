package index

// PostingList holds document ordinals in ascending order. Ordinals are
// assigned on append, so every list stays sorted without extra work.
type PostingList []int

// Intersect returns the ordinals present in both lists. Neither input is
// modified.
func (p PostingList) Intersect(other PostingList) PostingList {
	if len(p) > len(other) {
		p, other = other, p
	}
	out := make(PostingList, 0, len(p))
	i, j := 0, 0
	for i < len(p) && j < len(other) {
		switch {
		case p[i] == other[j]:
			out = append(out, p[i])
			i++
			j++
		case p[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return out
}
