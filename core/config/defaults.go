package config

// DefaultDispatch returns the routing table the bot ships with. Order of
// Commands is the parser's match priority.
func DefaultDispatch() DispatchConfig {
	return DispatchConfig{
		SessionTTLMinutes: 5,
		Namespace:         "#nlp",
		SelectionMarker:   "SELECT:",
		ImageMarker:       "#img",
		CancelKeywords:    []string{"cancel", "ยกเลิก"},
		SweepSeconds:      60,
		Commands: []CommandEntry{
			{Literal: "#trexplus", Service: "trexplus"},
			{Literal: "#lexto", Service: "lexto"},
			{Literal: "#trex++", Service: "trexplusplus"},
			{Literal: "#tner", Service: "tner"},
			{Literal: "#g2p", Service: "g2p"},
			{Literal: "#soundex", Service: "soundex"},
			{Literal: "#thaiwordsim", Service: "thaiwordsim"},
			{Literal: "#wordapprox", Service: "wordapprox"},
			{Literal: "#textclean", Service: "textclean"},
			{Literal: "#tagsuggest", Service: "tagsuggest"},
			{Literal: "#mtch2th", Service: "mtch2th"},
			{Literal: "#mtth2ch", Service: "mtth2ch"},
			{Literal: "#mten2th", Service: "mten2th"},
			{Literal: "#mtth2en", Service: "mtth2en"},
			{Literal: "#ssense", Service: "ssense"},
			{Literal: "#emonews", Service: "emonews"},
			{Literal: "#thaimoji", Service: "thaimoji"},
			{Literal: "#cyberbully", Service: "cyberbully"},
			{Literal: "#longan_sentence", Service: "longan_sentence"},
			{Literal: "#longan_tagger", Service: "longan_tagger"},
			{Literal: "#longan_tokentag", Service: "longan_tokentag"},
			{Literal: "#longan_tokenizer", Service: "longan_tokenizer"},
			{Literal: "#en2th_aligner", Service: "en2th_aligner"},
			{Literal: "#ch2th_aligner", Service: "ch2th_aligner"},
			{Literal: "#tts", Service: "tts"},
			{Literal: "#vajatts:", Service: "vajatts", Params: []string{"0", "1", "2", "3"}},
			{Literal: "#textsum", Service: "textsum"},
		},
		ImageMenu: []ImageOption{
			{Key: "1", Service: "face_blur", Title: "Face Blur"},
			{Key: "2", Service: "chest_classification", Title: "Chest X-Ray"},
			{Key: "3", Service: "violence_classification", Title: "Violence Detection"},
			{Key: "4", Service: "nsfw", Title: "NSFW Detection"},
			{Key: "5", Service: "super_resolution", Title: "Super Resolution"},
			{Key: "6", Service: "person_detection", Title: "Person Detection"},
			{Key: "7", Service: "caption_generation", Title: "Caption Generation"},
		},
		ChatService: "textqa",
		MultimodalServices: map[string]string{
			"audio": "audioqa",
			"image": "imageqa",
		},
	}
}
