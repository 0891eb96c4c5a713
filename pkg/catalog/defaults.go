package catalog

// DefaultLanguages is the built-in language table.
func DefaultLanguages() []LanguageEntry {
	return []LanguageEntry{
		{Key: "English-NZ", ShortName: "EnglishNZ", Display: "English NZ", Aliases: []string{"English-NZ", "EnglishNZ", "English_NZ"}},
		{Key: "Mandarin", ShortName: "Mandarin", Display: "Mandarin", Aliases: []string{"Mandarin", "Simplified-Chinese", "SimplifiedChinese", "Simplified_Chinese"}},
		{Key: "French", ShortName: "French", Display: "French", Aliases: []string{"French"}},
		{Key: "Spanish-US", ShortName: "SpanishUS", Display: "Spanish (Latin America)", Aliases: []string{"Spanish-US", "SpanishUS", "Spanish_US"}},
		{Key: "Maori", ShortName: "Maori", Display: "Te Reo Māori", Aliases: []string{"Maori", "Te Reo Maori", "Te-Reo-Maori", "TeReoMaori", "Te_Reo_Maori"}},
	}
}

// DefaultStories is the built-in story title table.
func DefaultStories() []Story {
	return []Story{
		{Name: "Art", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Art"},
			{Language: "Maori", Display: "Toi"},
			{Language: "Mandarin", Display: "艺术"},
			{Language: "French", Display: "L’art"},
			{Language: "SpanishUS", Display: "Arte"},
		}},
		{Name: "Band", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Band"},
			{Language: "Maori", Display: "Pēne"},
			{Language: "Mandarin", Display: "乐队"},
			{Language: "French", Display: "Le groupe"},
			{Language: "SpanishUS", Display: "Banda"},
		}},
		{Name: "BikeRace", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Bike Race"},
			{Language: "Maori", Display: "Reihi paihikara"},
			{Language: "Mandarin", Display: "自行车比赛"},
			{Language: "French", Display: "La course de vélo"},
			{Language: "SpanishUS", Display: "Carrera de bicicletas"},
		}},
		{Name: "Count", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Count"},
			{Language: "Maori", Display: "Kaute"},
			{Language: "Mandarin", Display: "数数"},
			{Language: "French", Display: "Compter"},
			{Language: "SpanishUS", Display: "Contar"},
		}},
		{Name: "Dance", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Dance"},
			{Language: "Maori", Display: "Kanikani"},
			{Language: "Mandarin", Display: "跳舞"},
			{Language: "French", Display: "La danse"},
			{Language: "SpanishUS", Display: "Bailar"},
		}},
		{Name: "KakapoDisco", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Kākāpō Disco"},
			{Language: "Maori", Display: "Kanikani o ngā Kākāpō"},
			{Language: "Mandarin", Display: "卡卡波迪斯科在哪里"},
			{Language: "French", Display: "La discothèque de Kākāpō"},
			{Language: "SpanishUS", Display: "La Disco De Kākāpō"},
		}},
		{Name: "Opposites", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Opposites"},
			{Language: "Maori", Display: "Ngā tauaro"},
			{Language: "Mandarin", Display: "反义词"},
			{Language: "French", Display: "Les contraires"},
			{Language: "SpanishUS", Display: "Opuestos"},
		}},
		{Name: "Party", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Party"},
			{Language: "Maori", Display: "Pāti"},
			{Language: "Mandarin", Display: "宴会"},
			{Language: "French", Display: "La fête"},
			{Language: "SpanishUS", Display: "Fiesta"},
		}},
		{Name: "Play", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Play"},
			{Language: "Maori", Display: "Tākaro"},
			{Language: "Mandarin", Display: "玩"},
			{Language: "French", Display: "Jouer"},
			{Language: "SpanishUS", Display: "Jugar"},
		}},
		{Name: "TreasureHunt", Titles: []StoryTitle{
			{Language: "EnglishNZ", Display: "Treasure Hunt"},
			{Language: "Maori", Display: "Kimi taonga"},
			{Language: "Mandarin", Display: "寻宝"},
			{Language: "French", Display: "Chasse au trésor"},
			{Language: "SpanishUS", Display: "Búsqueda del tesoro"},
		}},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultLanguages(), DefaultStories())
	if err != nil {
		// The built-in tables are fixed; a failure here is a programming error.
		panic(err)
	}
	return c
}
