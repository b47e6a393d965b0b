package names

// Compiled-in tables, source spelling -> canonical Hebrew display name.
// Keys are exact: each source adapter passes the string it observed.

var defaultTeams = map[string]string{
	// Israeli league (basket.co.il English names)
	"Maccabi Tel-Aviv":   "מכבי תל אביב",
	"Hapoel Jerusalem":   "הפועל ירושלים",
	"M. Rishon":          "מכבי ראשון לציון",
	"Ness Ziona":         "עירוני נס ציונה",
	"Hapoel Galil Elion": "הפועל גליל עליון",
	"Hapoel Haemek":      "הפועל העמק",
	"Beer Sheva/Dimona":  "הפועל באר שבע",
	"Hapoel Tel-Aviv":    "הפועל תל אביב",
	"Ironi Kiryat Ata":   "עירוני קרית אתא",
	"M. Ra;ananna":       "מכבי רעננה",
	"Elitzur Netanya":    "אליצור עירוני נתניה",
	"Hapoel Holon":       "הפועל חולון",
	"Maccabi Ramat Gan":  "מכבי רמת גן",

	// EuroLeague
	"Maccabi Rapyd Tel Aviv":             "מכבי תל אביב",
	"Hapoel IBI Tel Aviv":                "הפועל תל אביב",
	"Valencia Basket":                    "ולנסיה",
	"FC Barcelona":                       "ברצלונה",
	"Fenerbahce Beko Istanbul":           "פנרבחצ'ה",
	"AS Monaco":                          "מונקו",
	"Zalgiris Kaunas":                    "ז'לגיריס קובנה",
	"Crvena Zvezda Meridianbet Belgrade": "הכוכב האדום בלגרד",
	"Panathinaikos AKTOR Athens":         "פנאתינייקוס",
	"Real Madrid":                        "ריאל מדריד",
	"Olympiacos Piraeus":                 "אולימפיאקוס",
	"EA7 Emporio Armani Milan":           "ארמאני מילאנו",
	"Dubai Basketball":                   "דובאי",
	"Virtus Bologna":                     "וירטוס בולוניה",
	"Partizan Mozzart Bet Belgrade":      "פרטיזן בלגרד",
	"Paris Basketball":                   "פריז בסקטבול",
	"Kosner Baskonia Vitoria-Gasteiz":    "בסקוניה",
	"Anadolu Efes Istanbul":              "אנאדולו אפס",
	"FC Bayern Munich":                   "באיירן מינכן",
	"LDLC ASVEL Villeurbanne":            "ליון-וילרבאן",
}

var defaultStadiums = map[string]string{
	"Menora Mivtachim Arena":          "היכל מנורה מבטחים",
	"Shlomo Group Arena":              "היכל שלמה",
	"Pavilhao Ciutat de Valencia":     "פביון סיוטט דה ולנסיה",
	"Roig Arena":                      "רואיג ארנה",
	"Palau Blaugrana":                 "פלאו בלאוגרנה",
	"Ulker Sports and Event Hall":     "אולקר ספורט ארנה",
	"Salle Gaston Medecin":            "סאל גסטון מדסן",
	"Zalgirio Arena":                  "ז'לגיריס ארנה",
	"Belgrade Arena":                  "בלגרד ארנה",
	"Telekom Center Athens":           "טלקום סנטר אתונה",
	"Movistar Arena":                  "מוביסטאר ארנה",
	"Peace and Friendship Stadium":    "אצטדיון השלום והידידות",
	"Unipol Forum":                    "אוניפול פורום",
	"Coca-Cola Arena":                 "קוקה קולה ארנה",
	"Virtus Segafredo Arena":          "וירטוס סגפרדו ארנה",
	"Adidas Arena":                    "אדידס ארנה",
	"Fernando Buesa Arena":            "פרננדו בואסה ארנה",
	"Basketball Development Center":   "מרכז פיתוח הכדורסל",
	"SAP Garden":                      "SAP גארדן",
	"LDLC Arena":                      "LDLC ארנה",
	"Nikos Galis Olympic Indoor Hall": "היכל ניקוס גאליס",
}

var defaultPersons = map[string]string{
	// coaches
	"ODED KATTASH":         "עודד קטש",
	"Oded Kattash":         "עודד קטש",
	"Sergio Scariolo":      "סרג'יו סקריולו",
	"Ergin Ataman":         "ארגין אטאמן",
	"Georgios Bartzokas":   "ג'ורג'יוס ברצוקאס",
	"Sarunas Jasikevicius": "שארונאס יאסיקביצ'יוס",
	"Dimitris Itoudis":     "דימיטריס איטודיס",
	"Zeljko Obradovic":     "זליקו אוברדוביץ'",
	"Tomer Avraham Ginat":  "תומר גינת",
	// referees
	"Luigi Lamonica":     "לואיג'י למוניקה",
	"Damir Javor":        "דמיר ג'אבור",
	"Robert Lottermoser": "רוברט לוטרמוזר",
	"Juan Carlos Garcia": "חואן קרלוס גרסיה",
	"Sasa Pukl":          "סשה פוקל",
	// players (from the EuroLeague profile slug)
	"Roman Sorkin":   "רומן סורקין",
	"Lonnie Walker":  "לוני ווקר",
	"Jeff Dowtin":    "ג'ף דאוטין",
	"Tamir Blatt":    "תמיר בלאט",
	"Oshae Brissett": "אושיי בריסט",
	"Jimmy Clark":    "ג'ימי קלארק",
	"Zach Hankins":   "זאק הנקינס",
	"Rafi Menco":     "רפי מנקו",
	"Jaylen Hoard":   "ג'יילן הורד",
}

// basket.co.il game_type codes.
var defaultCompetitions = map[string]string{
	"1":          "ליגת העל",
	"2":          "גביע המדינה",
	"3":          "גביע ווינר",
	"4":          "ליגת העל",
	"euroleague": "יורוליג",
}
