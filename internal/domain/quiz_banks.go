package domain

// FrameworkQuiz is the acceptance quiz run with the ethical framework.
var FrameworkQuiz = QuestionBank{
	Name: "framework",
	Questions: []Question{
		{
			Prompt:  "Un prospect vous dit qu'il n'a pas le temps. Que faites-vous ?",
			Options: []string{"J'insiste jusqu'à ce qu'il accepte", "Je propose un autre créneau", "Je raccroche sans rien dire"},
			Correct: 1,
		},
		{
			Prompt:  "Peut-on promettre un financement CPF garanti à un prospect ?",
			Options: []string{"Oui, pour conclure plus vite", "Non, le financement dépend du dossier", "Oui, si le prospect hésite"},
			Correct: 1,
		},
		{
			Prompt:  "Quelle information devez-vous toujours donner en début d'appel ?",
			Options: []string{"Votre nom et l'organisme que vous représentez", "Le prix de la formation", "Aucune"},
			Correct: 0,
		},
		{
			Prompt:  "Un prospect demande à ne plus être appelé. Vous :",
			Options: []string{"Le rappelez la semaine suivante", "Notez sa demande et ne le rappelez plus", "Passez le contact à un collègue"},
			Correct: 1,
		},
		{
			Prompt:  "Que signifie la certification Qualiopi ?",
			Options: []string{"Une garantie de résultat", "Une certification qualité des organismes de formation", "Un mode de paiement"},
			Correct: 1,
		},
		{
			Prompt:  "Peut-on recueillir les identifiants CPF d'un prospect ?",
			Options: []string{"Oui, pour l'aider à s'inscrire", "Jamais", "Seulement s'il est d'accord"},
			Correct: 1,
		},
		{
			Prompt:  "Un rendez-vous qualifié, c'est :",
			Options: []string{"Un rendez-vous avec un besoin identifié et un décideur présent", "N'importe quel rendez-vous pris", "Un rendez-vous annulé"},
			Correct: 0,
		},
		{
			Prompt:  "Face à une objection sur le prix, la bonne réaction est :",
			Options: []string{"Baisser le prix immédiatement", "Reformuler la valeur de la formation", "Mettre fin à l'échange"},
			Correct: 1,
		},
	},
}

// ValidationQuiz is the end-of-training quiz gating the test-call recording.
var ValidationQuiz = QuestionBank{
	Name: "validation",
	Questions: []Question{
		{
			Prompt:  "Quelle est la première étape d'un appel de prospection ?",
			Options: []string{"Présenter le prix", "Se présenter et capter l'attention", "Envoyer le devis"},
			Correct: 1,
		},
		{
			Prompt:  "Le rôle du fixer est de :",
			Options: []string{"Qualifier le prospect et fixer un rendez-vous", "Encaisser le paiement", "Animer la formation"},
			Correct: 0,
		},
		{
			Prompt:  "Le rôle du closer est de :",
			Options: []string{"Prendre les rendez-vous", "Mener l'entretien de décision et inscrire l'élève", "Saisir les factures"},
			Correct: 1,
		},
		{
			Prompt:  "Un taux de no-show élevé indique :",
			Options: []string{"Des rendez-vous mal qualifiés ou mal confirmés", "De bonnes ventes", "Rien de particulier"},
			Correct: 0,
		},
		{
			Prompt:  "Quand envoyer un rappel de rendez-vous ?",
			Options: []string{"Jamais", "La veille ou le jour même", "Un mois après"},
			Correct: 1,
		},
		{
			Prompt:  "Une question ouverte commence souvent par :",
			Options: []string{"Est-ce que", "Comment ou pourquoi", "N'est-ce pas"},
			Correct: 1,
		},
		{
			Prompt:  "Le panier moyen se calcule :",
			Options: []string{"Chiffre d'affaires / nombre de ventes", "Nombre d'appels / jours", "Ventes / rendez-vous"},
			Correct: 0,
		},
		{
			Prompt:  "Si un prospect n'est pas éligible au CPF, vous :",
			Options: []string{"Présentez les autres modes de financement", "Mettez fin à l'appel", "Le déclarez éligible quand même"},
			Correct: 0,
		},
		{
			Prompt:  "Le délai de closing mesure :",
			Options: []string{"Le temps entre le premier rendez-vous et l'inscription", "La durée d'un appel", "Le temps de formation"},
			Correct: 0,
		},
		{
			Prompt:  "Un script d'appel doit être :",
			Options: []string{"Récité mot pour mot", "Un guide adapté à l'échange", "Ignoré"},
			Correct: 1,
		},
	},
}
