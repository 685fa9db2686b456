package market

// Instrument holds metadata for one tradable instrument.
type Instrument struct {
	Ticker    Ticker
	Name      string
	BasePrice Price
}

// Universe returns the fixed set of instruments the venue trades. Books and
// the prices view are built from this list at startup; orders and price
// updates for tickers outside it are rejected.
func Universe() []Instrument {
	return []Instrument{
		{ParseTicker("NEXO"), "Nexo Dynamics Inc", 185},
		{ParseTicker("QBIT"), "Qbit Quantum Corp", 92},
		{ParseTicker("FLUX"), "Flux Systems Ltd", 310},
		{ParseTicker("SYNK"), "Synk Networks Inc", 67},
		{ParseTicker("PULS"), "Puls Digital Corp", 145},
		{ParseTicker("CYRA"), "Cyra Robotics Inc", 220},
		{ParseTicker("LEDG"), "Ledger Capital Group", 78},
		{ParseTicker("VALT"), "Vault Securities Inc", 125},
		{ParseTicker("CRDT"), "Credt Financial Corp", 52},
		{ParseTicker("MNTX"), "Mintex Banking Corp", 165},
		{ParseTicker("HELX"), "Helix Biomedical Inc", 195},
		{ParseTicker("CURA"), "Cura Therapeutics", 72},
		{ParseTicker("GENX"), "GenX Genomics Corp", 148},
		{ParseTicker("VOLT"), "Volt Energy Corp", 98},
		{ParseTicker("SOLR"), "Solaris Power Inc", 42},
		{ParseTicker("FUSE"), "Fuse Petroleum Ltd", 175},
		{ParseTicker("BRND"), "Brand Global Inc", 112},
		{ParseTicker("LUXE"), "Luxe Retail Corp", 285},
		{ParseTicker("FORG"), "Forge Manufacturing", 132},
		{ParseTicker("BLDR"), "Builder Heavy Ind", 88},
		{ParseTicker("MACH"), "Mach Precision Corp", 205},
		{ParseTicker("ALOY"), "Aloy Materials Inc", 56},
		{ParseTicker("MKTS"), "Markets Broad ETF", 350},
		{ParseTicker("GRWT"), "Growth Select ETF", 180},
	}
}

// ByTicker returns a map from ticker to instrument for quick lookups.
func ByTicker(instruments []Instrument) map[Ticker]*Instrument {
	m := make(map[Ticker]*Instrument, len(instruments))
	for i := range instruments {
		m[instruments[i].Ticker] = &instruments[i]
	}
	return m
}
