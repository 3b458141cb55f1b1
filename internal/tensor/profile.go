package tensor

// Profile is a dense array indexed by (species, position).
type Profile struct {
	ns, nx int
	data   []float64
}

func NewProfile(ns, nx int) *Profile {
	return &Profile{ns: ns, nx: nx, data: make([]float64, ns*nx)}
}

func (p *Profile) Dims() (ns, nx int) { return p.ns, p.nx }

func (p *Profile) At(s, x int) float64     { return p.data[s*p.nx+x] }
func (p *Profile) Set(s, x int, v float64) { p.data[s*p.nx+x] = v }

// SumSpecies contracts the species axis.
func (p *Profile) SumSpecies() []float64 {
	out := make([]float64, p.nx)
	for s := 0; s < p.ns; s++ {
		for x := 0; x < p.nx; x++ {
			out[x] += p.data[s*p.nx+x]
		}
	}
	return out
}
