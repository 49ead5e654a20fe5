package codec

// InvestorCountry is the top-investor-countries Aggregator's answer for
// one country: the total budget invested in movies produced there. One
// message is emitted per country in the client's top-N, each with its
// own deterministic message id derived from the closing EOF
// (messages/investor_country.py).
type InvestorCountry struct {
	Base
	Country    string
	Investment int64
}

func (InvestorCountry) PacketType() PacketType { return PacketInvestorCountry }

func (c InvestorCountry) encode() []byte {
	out := encodeTag(PacketInvestorCountry)
	out = append(out, c.Base.encode()...)
	out = append(out, encodeString(c.Country)...)
	return append(out, encodeInt(c.Investment, true)...)
}

func decodeInvestorCountryBody(payload []byte, offset int) (InvestorCountry, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return InvestorCountry{}, err
	}
	country, offset, err := decodeString("country", offset, payload)
	if err != nil {
		return InvestorCountry{}, err
	}
	investment, _, _, err := decodeInt(offset, payload)
	if err != nil {
		return InvestorCountry{}, err
	}
	return InvestorCountry{Base: base, Country: country, Investment: investment}, nil
}
