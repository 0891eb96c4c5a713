package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("fr", l10n.LexiconMap{
		"Build and preview the Poppy and Buddy story site":             "Construire et prévisualiser le site des histoires de Poppy et Buddy",
		"Path to the configuration file":                               "Chemin du fichier de configuration",
		"Write the default configuration file":                         "Écrire le fichier de configuration par défaut",
		"Also export the built-in catalog to this .yaml or .toml file": "Exporter aussi le catalogue intégré vers ce fichier .yaml ou .toml",
		"List every generated route":                                   "Lister toutes les routes générées",
		"Only list routes of this story":                               "Lister uniquement les routes de cette histoire",
		"Print JSON instead of one path per line":                      "Afficher du JSON au lieu d'un chemin par ligne",
		"Render the static site":                                       "Générer le site statique",
		"Remove the output directory first":                            "Supprimer d'abord le répertoire de sortie",
		"Render share card images":                                     "Générer les images de partage",
		"Check the generated pages after the build":                    "Vérifier les pages générées après la construction",
		"Check the catalog and, optionally, the remote audio files":    "Vérifier le catalogue et, en option, les fichiers audio distants",
		"Send a HEAD request for every audio file":                     "Envoyer une requête HEAD pour chaque fichier audio",
		"Fail on catalog warnings and missing audio":                   "Échouer en cas d'avertissements du catalogue ou d'audio manquant",
		"Print the duration of a local audio file":                     "Afficher la durée d'un fichier audio local",
		"Serve the built site and the player API":                      "Servir le site construit et l'API du lecteur",
		"Build the site before serving":                                "Construire le site avant de le servir",
		"Listen address (overrides server.address)":                    "Adresse d'écoute (remplace server.address)",
		"Disable host audio playback":                                  "Désactiver la lecture audio sur l'hôte",
		"Play a story on this computer's speakers":                     "Lire une histoire sur les haut-parleurs de cet ordinateur",
		"CRITICAL ERROR: %v":                                           "ERREUR CRITIQUE : %v",
		"Config file generated: %s":                                    "Fichier de configuration généré : %s",
		"Catalog exported: %s":                                         "Catalogue exporté : %s",
		"Built %d pages for %d stories in %s":                          "%d pages construites pour %d histoires en %s",
		"%d share cards written":                                       "%d images de partage écrites",
		"%d generated pages do not match their route":                  "%d pages générées ne correspondent pas à leur route",
		"Catalog warning: %s":                                          "Avertissement du catalogue : %s",
		"%d routes (expected %d)":                                      "%d routes (%d attendues)",
		"Route count mismatch: enumerated %d, expected %d":             "Nombre de routes incohérent : %d énumérées, %d attendues",
		"Checked %d audio files: %d missing, %d failed":                "%d fichiers audio vérifiés : %d manquants, %d en échec",
		"Missing: %s":                                                  "Manquant : %s",
		"%d audio files missing":                                       "%d fichiers audio manquants",
		"%d catalog warnings":                                          "%d avertissements du catalogue",
		"Duration of %s: %s":                                           "Durée de %s : %s",
		"Playing %s / %s":                                              "Lecture de %s / %s",
		"Finished.":                                                    "Terminé.",
		"Stopped.":                                                     "Arrêté.",
		"expected STORY PRIMARY SECONDARY":                             "STORY PRIMARY SECONDARY attendus",
		"Preflight checks failed":                                      "Les vérifications préalables ont échoué",
		"Only list pages recorded by the last build":                   "Lister uniquement les pages de la dernière construction",
		"No build recorded yet":                                        "Aucune construction enregistrée",
		"No story to resume":                                           "Aucune histoire à reprendre",
		"Resuming %s":                                                  "Reprise de %s",
	})

	l10n.Register("es", l10n.LexiconMap{
		"Build and preview the Poppy and Buddy story site":             "Construir y previsualizar el sitio de cuentos de Poppy y Buddy",
		"Path to the configuration file":                               "Ruta del archivo de configuración",
		"Write the default configuration file":                         "Escribir el archivo de configuración predeterminado",
		"Also export the built-in catalog to this .yaml or .toml file": "Exportar también el catálogo integrado a este archivo .yaml o .toml",
		"List every generated route":                                   "Listar todas las rutas generadas",
		"Only list routes of this story":                               "Listar solo las rutas de este cuento",
		"Print JSON instead of one path per line":                      "Imprimir JSON en lugar de una ruta por línea",
		"Render the static site":                                       "Generar el sitio estático",
		"Remove the output directory first":                            "Eliminar primero el directorio de salida",
		"Render share card images":                                     "Generar imágenes para compartir",
		"Check the generated pages after the build":                    "Comprobar las páginas generadas tras la construcción",
		"Check the catalog and, optionally, the remote audio files":    "Comprobar el catálogo y, opcionalmente, los archivos de audio remotos",
		"Send a HEAD request for every audio file":                     "Enviar una petición HEAD por cada archivo de audio",
		"Fail on catalog warnings and missing audio":                   "Fallar con advertencias del catálogo o audio ausente",
		"Print the duration of a local audio file":                     "Mostrar la duración de un archivo de audio local",
		"Serve the built site and the player API":                      "Servir el sitio construido y la API del reproductor",
		"Build the site before serving":                                "Construir el sitio antes de servirlo",
		"Listen address (overrides server.address)":                    "Dirección de escucha (reemplaza server.address)",
		"Disable host audio playback":                                  "Desactivar la reproducción de audio en el equipo",
		"Play a story on this computer's speakers":                     "Reproducir un cuento en los altavoces de este equipo",
		"CRITICAL ERROR: %v":                                           "ERROR CRÍTICO: %v",
		"Config file generated: %s":                                    "Archivo de configuración generado: %s",
		"Catalog exported: %s":                                         "Catálogo exportado: %s",
		"Built %d pages for %d stories in %s":                          "%d páginas construidas para %d cuentos en %s",
		"%d share cards written":                                       "%d imágenes para compartir escritas",
		"%d generated pages do not match their route":                  "%d páginas generadas no coinciden con su ruta",
		"Catalog warning: %s":                                          "Advertencia del catálogo: %s",
		"%d routes (expected %d)":                                      "%d rutas (%d esperadas)",
		"Route count mismatch: enumerated %d, expected %d":             "Número de rutas incoherente: %d enumeradas, %d esperadas",
		"Checked %d audio files: %d missing, %d failed":                "%d archivos de audio comprobados: %d ausentes, %d con error",
		"Missing: %s":                                                  "Ausente: %s",
		"%d audio files missing":                                       "%d archivos de audio ausentes",
		"%d catalog warnings":                                          "%d advertencias del catálogo",
		"Duration of %s: %s":                                           "Duración de %s: %s",
		"Playing %s / %s":                                              "Reproduciendo %s / %s",
		"Finished.":                                                    "Terminado.",
		"Stopped.":                                                     "Detenido.",
		"expected STORY PRIMARY SECONDARY":                             "se esperaba STORY PRIMARY SECONDARY",
		"Preflight checks failed":                                      "Fallaron las comprobaciones previas",
		"Only list pages recorded by the last build":                   "Listar solo las páginas de la última construcción",
		"No build recorded yet":                                        "Todavía no hay ninguna construcción registrada",
		"No story to resume":                                           "No hay ninguna historia para reanudar",
		"Resuming %s":                                                  "Reanudando %s",
	})

	l10n.Register("mi", l10n.LexiconMap{
		"Build and preview the Poppy and Buddy story site": "Hangaia, arokitea hoki te pae pakiwaitara o Poppy rāua ko Buddy",
		"Path to the configuration file":                   "Te ara ki te kōnae whirihora",
		"Write the default configuration file":             "Tuhia te kōnae whirihora taunoa",
		"List every generated route":                       "Rārangitia ngā ara katoa",
		"Render the static site":                           "Hangaia te pae pateko",
		"Serve the built site and the player API":          "Tukuna te pae me te API pūrei",
		"Play a story on this computer's speakers":         "Pūreitia he pakiwaitara ki ngā kōrero o tēnei rorohiko",
		"CRITICAL ERROR: %v":                               "HAPA NUI: %v",
		"Config file generated: %s":                        "Kua hangaia te kōnae whirihora: %s",
		"Built %d pages for %d stories in %s":              "Kua hangaia ngā whārangi %d mō ngā pakiwaitara %d i roto i te %s",
		"Playing %s / %s":                                  "E pūrei ana %s / %s",
		"Finished.":                                        "Kua mutu.",
		"Stopped.":                                         "Kua whakamutua.",
		"No story to resume":                               "Kāore he pakiwaitara hei haere tonu",
		"Resuming %s":                                      "E haere tonu ana %s",
	})
}
