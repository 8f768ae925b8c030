package facility

// fallback is the demo dataset rendered when acquisition yields nothing.
var fallback = []Record{
	{Name: "Stade de France, Saint-Denis", Latitude: 48.9244, Longitude: 2.3601},
	{Name: "Parc des Princes, Paris", Latitude: 48.8414, Longitude: 2.2530},
	{Name: "Stade Vélodrome, Marseille", Latitude: 43.2965, Longitude: 5.3954},
	{Name: "Groupama Stadium, Lyon", Latitude: 45.7239, Longitude: 4.8316},
	{Name: "Allianz Riviera, Nice", Latitude: 43.7246, Longitude: 7.2590},
	{Name: "Stade de la Mosson, Montpellier", Latitude: 43.6112, Longitude: 3.8128},
	{Name: "Stade de la Beaujoire, Nantes", Latitude: 47.2582, Longitude: -1.5250},
	{Name: "Matmut Atlantique, Bordeaux", Latitude: 44.8379, Longitude: -0.5389},
	{Name: "Roazhon Park, Rennes", Latitude: 48.1087, Longitude: -1.6741},
	{Name: "Stade Pierre-Mauroy, Lille", Latitude: 50.6332, Longitude: 3.0762},
	{Name: "Stade de l'Ill, Mulhouse", Latitude: 47.7474, Longitude: 7.3089},
	{Name: "Stade de Picardie, Amiens", Latitude: 49.4254, Longitude: 2.0884},
	{Name: "Stade Gaston Gérard, Dijon", Latitude: 47.3410, Longitude: 5.0734},
	{Name: "Stade de la Licorne, Amiens", Latitude: 49.8911, Longitude: 2.2675},
	{Name: "Stade Auguste-Bonal, Sochaux", Latitude: 47.4761, Longitude: 6.8135},
	{Name: "Stade Louis-Dugauguez, Sedan", Latitude: 49.7274, Longitude: 4.7106},
	{Name: "Stade Geoffroy-Guichard, Saint-Étienne", Latitude: 45.5266, Longitude: 4.2901},
	{Name: "Stadium de Toulouse, Toulouse", Latitude: 43.5549, Longitude: 1.4343},
	{Name: "Stade de la Source, Orléans", Latitude: 47.8849, Longitude: 1.9153},
	{Name: "Stade Joseph-Guétat, Mâcon", Latitude: 46.3075, Longitude: 4.8334},
	{Name: "Stade Chaban-Delmas, Bordeaux", Latitude: 44.8425, Longitude: -0.5613},
	{Name: "Stade des Costières, Nîmes", Latitude: 43.8302, Longitude: 4.3661},
	{Name: "Parc des Sports d'Annecy, Annecy", Latitude: 45.9009, Longitude: 6.1192},
	{Name: "Stade Robert-Poirier, Rennes", Latitude: 48.1175, Longitude: -1.6769},
	{Name: "Stade Yves-du-Manoir, Montpellier", Latitude: 43.6045, Longitude: 3.9735},
	{Name: "Stade Auguste-Delaune, Reims", Latitude: 49.2416, Longitude: 4.0254},
	{Name: "Stade de la Frontière, Saint-Louis", Latitude: 47.5946, Longitude: 7.5465},
	{Name: "Stade Marcel-Verchère, Bourg-en-Bresse", Latitude: 46.2049, Longitude: 5.2253},
	{Name: "Stade Bollaert-Delelis, Lens", Latitude: 50.4311, Longitude: 2.8286},
	{Name: "Stade Saint-Symphorien, Metz", Latitude: 49.1199, Longitude: 6.1775},
}

// Fallback returns a copy of the demo dataset. It is never empty.
func Fallback() []Record {
	out := make([]Record, len(fallback))
	copy(out, fallback)
	return out
}
