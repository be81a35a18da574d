package etrade

import "encoding/json"

// DTOs raw de la API de E*TRADE. Solo se usan dentro de este paquete.
// La conversión a domain se hace en mapping.go.
//
// Los campos numéricos se guardan como json.RawMessage: la cadena trae a menudo
// campos ausentes o no numéricos en strikes ilíquidos y queremos detectarlos
// fila a fila en lugar de fallar el decode completo.

// --- Quote ---

type quoteEnvelope struct {
	QuoteResponse quoteResponse `json:"QuoteResponse"`
}

type quoteResponse struct {
	QuoteData []quoteData `json:"QuoteData"`
	Messages  messages    `json:"Messages"`
}

type quoteData struct {
	DateTime string   `json:"dateTime"`
	All      allQuote `json:"All"`
	Product  product  `json:"Product"`
}

type allQuote struct {
	Bid       json.RawMessage `json:"bid"`
	Ask       json.RawMessage `json:"ask"`
	LastTrade json.RawMessage `json:"lastTrade"`
}

type product struct {
	Symbol       string `json:"symbol"`
	SecurityType string `json:"securityType"`
}

type messages struct {
	Message []message `json:"Message"`
}

type message struct {
	Description string `json:"description"`
	Code        int    `json:"code"`
	Type        string `json:"type"`
}

// --- Option chain ---

type optionChainEnvelope struct {
	OptionChainResponse optionChainResponse `json:"OptionChainResponse"`
}

type optionChainResponse struct {
	OptionPair []optionPair    `json:"OptionPair"`
	QuoteType  string          `json:"quoteType"`
	NearPrice  json.RawMessage `json:"nearPrice"`
}

type optionPair struct {
	Call *optionDetails `json:"Call"`
	Put  *optionDetails `json:"Put"`
}

type optionDetails struct {
	DisplaySymbol string          `json:"displaySymbol"`
	OptionType    string          `json:"optionType"`
	StrikePrice   json.RawMessage `json:"strikePrice"`
	Bid           json.RawMessage `json:"bid"`
	Ask           json.RawMessage `json:"ask"`
	AskSize       json.RawMessage `json:"askSize"`
	LastPrice     json.RawMessage `json:"lastPrice"`
	Volume        json.RawMessage `json:"volume"`
	OptionGreeks  *optionGreeks   `json:"OptionGreeks"`
}

type optionGreeks struct {
	Gamma json.RawMessage `json:"gamma"`
	IV    json.RawMessage `json:"iv"`
}

// --- Errores ---

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"Error"`
}
