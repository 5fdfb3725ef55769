package normalizer

// vocabEntry maps a canonical label to the variants that may appear in
// listing titles. Entries are consulted in order; within an entry the longest
// variant is preferred so "base set 1st edition" is not swallowed by "base".
type vocabEntry struct {
	Canonical string
	Variants  []string
}

// cardSets is the known-set vocabulary. Titles mentioning a set outside this
// list leave the set attribute unset; the parser does not guess novel sets.
var cardSets = []vocabEntry{
	{"base set", []string{"base", "base set", "base set unlimited"}},
	{"base set 1st edition", []string{"base set 1st edition", "1st edition base set", "base 1st"}},
	{"jungle", []string{"jungle", "jungle unlimited"}},
	{"fossil", []string{"fossil", "fossil unlimited"}},
	{"team rocket", []string{"team rocket", "team rocket unlimited"}},
	{"gym heroes", []string{"gym heroes", "gym heroes unlimited"}},
	{"gym challenge", []string{"gym challenge", "gym challenge unlimited"}},
	{"neo genesis", []string{"neo genesis", "neo genesis unlimited"}},
	{"neo discovery", []string{"neo discovery", "neo discovery unlimited"}},
	{"neo revelation", []string{"neo revelation", "neo revelation unlimited"}},
	{"neo destiny", []string{"neo destiny", "neo destiny unlimited"}},
	{"legendary collection", []string{"legendary collection", "lc"}},
	{"expedition base set", []string{"expedition base set", "expedition"}},
	{"aquapolis", []string{"aquapolis"}},
	{"skyridge", []string{"skyridge"}},
	{"ex ruby & sapphire", []string{"ex ruby & sapphire", "ex ruby and sapphire", "ex rs"}},
	{"ex sandstorm", []string{"ex sandstorm"}},
	{"ex dragon", []string{"ex dragon"}},
	{"ex team magma vs team aqua", []string{"ex team magma vs team aqua", "ex tmta"}},
	{"ex hidden legends", []string{"ex hidden legends"}},
	{"ex fire red & leaf green", []string{"ex fire red & leaf green", "ex frlg"}},
	{"ex team rocket returns", []string{"ex team rocket returns", "ex trr"}},
	{"ex deoxys", []string{"ex deoxys"}},
	{"ex emerald", []string{"ex emerald"}},
	{"ex unseen forces", []string{"ex unseen forces"}},
	{"ex delta species", []string{"ex delta species"}},
	{"ex legend maker", []string{"ex legend maker"}},
	{"ex holon phantoms", []string{"ex holon phantoms"}},
	{"ex crystal guardians", []string{"ex crystal guardians"}},
	{"ex dragon frontiers", []string{"ex dragon frontiers"}},
	{"ex power keepers", []string{"ex power keepers"}},
	{"diamond & pearl", []string{"diamond & pearl", "diamond and pearl", "dp"}},
	{"mysterious treasures", []string{"mysterious treasures"}},
	{"secret wonders", []string{"secret wonders"}},
	{"great encounters", []string{"great encounters"}},
	{"majestic dawn", []string{"majestic dawn"}},
	{"legends awakened", []string{"legends awakened"}},
	{"stormfront", []string{"stormfront"}},
	{"platinum", []string{"platinum"}},
	{"rising rivals", []string{"rising rivals"}},
	{"supreme victors", []string{"supreme victors"}},
	{"arceus", []string{"arceus"}},
	{"heartgold & soulsilver", []string{"heartgold & soulsilver", "hgss"}},
	{"unleashed", []string{"unleashed"}},
	{"undaunted", []string{"undaunted"}},
	{"triumphant", []string{"triumphant"}},
	{"call of legends", []string{"call of legends"}},
	{"black & white", []string{"black & white", "bw"}},
	{"emerging powers", []string{"emerging powers"}},
	{"noble victories", []string{"noble victories"}},
	{"next destinies", []string{"next destinies"}},
	{"dark explorers", []string{"dark explorers"}},
	{"dragons exalted", []string{"dragons exalted"}},
	{"boundaries crossed", []string{"boundaries crossed"}},
	{"plasma storm", []string{"plasma storm"}},
	{"plasma freeze", []string{"plasma freeze"}},
	{"plasma blast", []string{"plasma blast"}},
	{"legendary treasures", []string{"legendary treasures"}},
	{"xy", []string{"xy"}},
	{"flashfire", []string{"flashfire"}},
	{"furious fists", []string{"furious fists"}},
	{"phantom forces", []string{"phantom forces"}},
	{"primal clash", []string{"primal clash"}},
	{"roaring skies", []string{"roaring skies"}},
	{"ancient origins", []string{"ancient origins"}},
	{"breakthrough", []string{"breakthrough"}},
	{"breakpoint", []string{"breakpoint"}},
	{"generations", []string{"generations"}},
	{"fates collide", []string{"fates collide"}},
	{"steam siege", []string{"steam siege"}},
	{"evolutions", []string{"evolutions"}},
	{"sun & moon", []string{"sun & moon", "sm"}},
	{"guardians rising", []string{"guardians rising"}},
	{"burning shadows", []string{"burning shadows"}},
	{"shining legends", []string{"shining legends"}},
	{"crimson invasion", []string{"crimson invasion"}},
	{"ultra prism", []string{"ultra prism"}},
	{"forbidden light", []string{"forbidden light"}},
	{"celestial storm", []string{"celestial storm"}},
	{"dragon majesty", []string{"dragon majesty"}},
	{"lost thunder", []string{"lost thunder"}},
	{"team up", []string{"team up"}},
	{"detective pikachu", []string{"detective pikachu"}},
	{"unbroken bonds", []string{"unbroken bonds"}},
	{"unified minds", []string{"unified minds"}},
	{"hidden fates", []string{"hidden fates"}},
	{"cosmic eclipse", []string{"cosmic eclipse"}},
	{"sword & shield", []string{"sword & shield", "ss"}},
	{"rebel clash", []string{"rebel clash"}},
	{"darkness ablaze", []string{"darkness ablaze"}},
	{"champions path", []string{"champions path"}},
	{"vivid voltage", []string{"vivid voltage"}},
	{"shining fates", []string{"shining fates"}},
	{"battle styles", []string{"battle styles"}},
	{"chilling reign", []string{"chilling reign"}},
	{"evolving skies", []string{"evolving skies"}},
	{"celebrations", []string{"celebrations"}},
	{"fusion strike", []string{"fusion strike"}},
	{"brilliant stars", []string{"brilliant stars"}},
	{"astral radiance", []string{"astral radiance"}},
	{"lost origin", []string{"lost origin"}},
	{"silver tempest", []string{"silver tempest"}},
	{"crown zenith", []string{"crown zenith"}},
	{"scarlet & violet", []string{"scarlet & violet", "sv"}},
	{"paldea evolved", []string{"paldea evolved"}},
	{"obsidian flames", []string{"obsidian flames"}},
	{"151", []string{"151"}},
	{"paradigm rift", []string{"paradigm rift"}},
	{"temporal forces", []string{"temporal forces"}},
	{"twilight masquerade", []string{"twilight masquerade"}},
	{"ancient roar", []string{"ancient roar"}},
	{"future flash", []string{"future flash"}},
}

// gradingCompanies maps slab-company abbreviations to title variants.
var gradingCompanies = []vocabEntry{
	{"psa", []string{"psa", "professional sports authenticator"}},
	{"bgs", []string{"bgs", "beckett grading services", "beckett"}},
	{"cgc", []string{"cgc", "certified guarantee company"}},
	{"sgc", []string{"sgc", "sportscard guarantee"}},
	{"hga", []string{"hga", "hybrid grading approach"}},
	{"ace", []string{"ace", "ace grading"}},
	{"gma", []string{"gma", "gem mint authentication"}},
}

// editions maps print-run labels to title variants. Order matters: "reverse
// holo" must be checked before "holo".
var editions = []vocabEntry{
	{"1st edition", []string{"1st edition", "1st ed", "first edition", "first ed"}},
	{"unlimited", []string{"unlimited", "unl", "unltd"}},
	{"shadowless", []string{"shadowless", "shadow less"}},
	{"reverse holo", []string{"reverse holo", "reverse holographic", "rev holo"}},
	{"holo", []string{"holo", "holographic"}},
	{"non-holo", []string{"non-holo", "non holo", "non-holographic"}},
}

// holoIndicators are the tokens whose presence anywhere in a title marks the
// card as holographic. Absence is a confident false.
var holoIndicators = []string{"holo", "holographic", "reverse holo", "reverse holographic"}

// commonTitleWords are stripped before the remaining text is taken as the
// card name.
var commonTitleWords = []string{"pokemon", "card", "trading", "game", "holo", "holographic", "1st", "edition", "unlimited"}
