// Package grid implementa el controlador de consultas perezosas de una tabla
// paginada contra un servicio remoto de colecciones.
//
// La vista nunca guarda más de una página. Cada cambio de página, orden o
// filtro produce un QueryState nuevo (Reduce), y el controlador lanza una
// consulta construida a partir de él (BuildRequest). Cada consulta lleva un
// número de secuencia; solo se aplica el resultado de la última emitida, de
// modo que una respuesta lenta de un filtro viejo no pisa la tabla.
//
// Las mutaciones (Create, Update, Delete, DeleteMany) no tocan las filas: si
// tienen éxito piden un refetch con el estado vigente, sin volver a la
// página 0.
package grid
