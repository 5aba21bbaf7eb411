package condoor

import cerrors "github.com/decolnz/condoor/errors"

// NormalizeURLs accepts the same flexible shapes condoor/utils.py's
// normalize_urls did for the urls argument to Connection(): a single
// hop URL, a single chain (ordered hop URLs, jumphosts first), or
// several alternative chains. It always returns the canonical
// [][]string form New expects, one inner slice per chain.
func NormalizeURLs(urls interface{}) ([][]string, error) {
	switch v := urls.(type) {
	case string:
		return [][]string{{v}}, nil
	case []string:
		return [][]string{v}, nil
	case [][]string:
		return v, nil
	case []interface{}:
		return normalizeMixed(v)
	default:
		return nil, cerrors.NewInvalidHopInfoError("urls must be a string, []string, [][]string, or a mix of the two")
	}
}

// normalizeMixed handles the case a caller built its chain list out of
// untyped interfaces (e.g. decoded from JSON/YAML), where each element
// may be either a single hop URL (implicitly a one-hop chain) or a list
// of hop URLs (a multi-hop chain).
func normalizeMixed(elems []interface{}) ([][]string, error) {
	chains := make([][]string, 0, len(elems))
	for _, elem := range elems {
		switch e := elem.(type) {
		case string:
			chains = append(chains, []string{e})
		case []string:
			chains = append(chains, e)
		case []interface{}:
			hops := make([]string, 0, len(e))
			for _, h := range e {
				s, ok := h.(string)
				if !ok {
					return nil, cerrors.NewInvalidHopInfoError("chain entries must be hop URL strings")
				}
				hops = append(hops, s)
			}
			chains = append(chains, hops)
		default:
			return nil, cerrors.NewInvalidHopInfoError("chain entries must be a hop URL string or a list of hop URLs")
		}
	}
	return chains, nil
}
