package exchange

func card(q, a string) Card { return Card{Question: q, Answer: a} }

// SampleSets returns the bundled starter decks.
func SampleSets() []Document {
	return []Document{
		{Version: FormatVersion, Title: "Math Basics", Cards: []Card{
			card("What is 2+2?", "4"),
			card("What is 7 x 8?", "56"),
			card("What is the square root of 16?", "4"),
			card("What is π (pi) rounded to 2 decimal places?", "3.14"),
			card("What is 15% of 200?", "30"),
			card("What is the formula for the area of a circle?", "πr²"),
		}},
		{Version: FormatVersion, Title: "History", Cards: []Card{
			card("Who discovered America?", "Columbus"),
			card("In what year did World War II end?", "1945"),
			card("Who was the first President of the United States?", "George Washington"),
			card("What ancient wonder was located in Alexandria?", "The Great Lighthouse"),
			card("Which empire built the Pyramids?", "Ancient Egyptian Empire"),
			card("When did the Berlin Wall fall?", "1989"),
		}},
		{Version: FormatVersion, Title: "Science", Cards: []Card{
			card("What is H2O?", "Water"),
			card("What is the closest planet to the Sun?", "Mercury"),
			card("What is the hardest natural substance?", "Diamond"),
			card("What is the speed of light?", "299,792,458 meters per second"),
			card("What is the largest organ in the human body?", "Skin"),
			card("What is the process of plants making food called?", "Photosynthesis"),
		}},
		{Version: FormatVersion, Title: "Language Basics", Cards: []Card{
			card("Hola means?", "Hello"),
			card("Bonjour means?", "Good day/Hello"),
			card("Gracias means?", "Thank you"),
			card("Comment allez-vous means?", "How are you?"),
			card("Guten Tag means?", "Good day"),
			card("Ciao means?", "Hello/Goodbye"),
		}},
	}
}
