package codec

// AvgRateRevenueBudget is the budget/revenue-by-sentiment Aggregator's
// answer for one sentiment bucket: the average revenue/budget ratio
// across every movie in that bucket. One message is emitted per
// sentiment present in the client's accumulated state
// (messages/avg_rate_revenue_budget.py).
type AvgRateRevenueBudget struct {
	Base
	Sentiment Sentiment
	Avg       float64
}

func (AvgRateRevenueBudget) PacketType() PacketType { return PacketAvgRateRevenueBudget }

func (b AvgRateRevenueBudget) encode() []byte {
	out := encodeTag(PacketAvgRateRevenueBudget)
	out = append(out, b.Base.encode()...)
	out = append(out, encodeInt(int64(sentimentValue(b.Sentiment)), true)...)
	return append(out, encodeFloat(b.Avg, true)...)
}

func decodeAvgRateRevenueBudgetBody(payload []byte, offset int) (AvgRateRevenueBudget, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return AvgRateRevenueBudget{}, err
	}
	sentimentValue, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return AvgRateRevenueBudget{}, err
	}
	avg, _, _, err := decodeFloat(offset, payload)
	if err != nil {
		return AvgRateRevenueBudget{}, err
	}
	return AvgRateRevenueBudget{Base: base, Sentiment: sentimentFromValue(int(sentimentValue)), Avg: avg}, nil
}
